package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/notification/domain"
	"github.com/saransh1220/album-market/internal/shared/clock"
)

type NotificationService struct {
	repo   domain.NotificationRepository
	pusher domain.Pusher
	clock  clock.Clock
	logger *slog.Logger
}

func NewNotificationService(repo domain.NotificationRepository, pusher domain.Pusher, clk clock.Clock, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &NotificationService{repo: repo, pusher: pusher, clock: clk, logger: logger.With("component", "notification_service")}
}

// Create stores a notification and pushes it to the user's open sockets.
func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, title, message string, type_ domain.NotificationType) (*domain.Notification, error) {
	notification := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      type_,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		msg, err := json.Marshal(notification)
		if err != nil {
			s.logger.Warn("notification not pushed", "notification_id", notification.ID, "error", err)
		} else {
			s.pusher.SendToUser(userID, msg)
		}
	}
	return notification, nil
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
