package notification

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/album-market/internal/modules/notification/application"
	"github.com/saransh1220/album-market/internal/modules/notification/domain"
	"github.com/saransh1220/album-market/internal/modules/notification/infrastructure/persistence/postgres"
	"github.com/saransh1220/album-market/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/saransh1220/album-market/internal/modules/notification/interfaces/http"
)

type Config struct {
	QueueSize int
	// Mailer sends completion e-mails. Nil disables e-mail.
	Mailer domain.Mailer
}

type Module struct {
	service    *application.NotificationService
	dispatcher *application.Dispatcher
	handler    *notification_http.NotificationHandler
	hub        *websocket.Hub
}

func NewModule(db *sqlx.DB, cfg Config, logger *slog.Logger) *Module {
	repo := postgres.NewPgNotificationRepository(db)
	hub := websocket.NewHub()
	go hub.Run()

	service := application.NewNotificationService(repo, hub, nil, logger)

	var recipients domain.RecipientRepository
	if cfg.Mailer != nil {
		recipients = postgres.NewPgRecipientRepository(db)
	}
	dispatcher := application.NewDispatcher(service, recipients, cfg.Mailer, cfg.QueueSize, logger)

	return &Module{
		service:    service,
		dispatcher: dispatcher,
		handler:    notification_http.NewNotificationHandler(service, hub, logger),
		hub:        hub,
	}
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

// Dispatcher receives order completion notices.
func (m *Module) Dispatcher() *application.Dispatcher {
	return m.dispatcher
}

// Run delivers queued notices until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	return m.dispatcher.Run(ctx)
}

func (m *Module) Shutdown() {
	m.hub.Stop()
}
