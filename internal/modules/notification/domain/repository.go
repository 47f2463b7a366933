package domain

import (
	"context"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type RecipientRepository interface {
	GetRecipient(ctx context.Context, userID uuid.UUID) (*Recipient, error)
}

type Mailer interface {
	Send(ctx context.Context, to Recipient, subject, body string) error
}

// Pusher delivers a payload to the live sessions of one user.
type Pusher interface {
	SendToUser(userID uuid.UUID, message []byte)
}
