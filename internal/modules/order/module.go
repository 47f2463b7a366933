package order

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/album-market/internal/modules/order/application"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/modules/order/infrastructure/persistence/postgres"
	order_http "github.com/saransh1220/album-market/internal/modules/order/interfaces/http"
	"github.com/saransh1220/album-market/internal/shared/clock"
	"github.com/saransh1220/album-market/internal/worker"
)

const (
	TaskExpire = "orders.expire"
	TaskReap   = "orders.reap"
)

// Config carries the order lifecycle settings and the module's collaborators.
type Config struct {
	Currency      string
	AutoFulfil    bool
	ExpiryTTL     time.Duration
	SweepInterval time.Duration
	Retention     time.Duration
	ReapInterval  time.Duration
	WebhookSecret string

	Gateway  domain.PaymentGateway
	Notifier domain.CompletionNotifier
	// Archiver is optional.
	Archiver domain.OrderArchiver
	Clock    clock.Clock
}

// Module represents the Order module
type Module struct {
	service *application.OrderService
	sweeper *application.ExpirySweeper
	reaper  *application.RetentionReaper
	handler *order_http.OrderHandler
	webhook *order_http.WebhookHandler
	cfg     Config
}

// NewModule creates and initializes the Order module
func NewModule(db *sqlx.DB, cfg Config, logger *slog.Logger) *Module {
	orders := postgres.NewOrderRepository(db)
	grants := postgres.NewGrantRepository(db)
	tx := postgres.NewTxManager(db)

	service := application.NewOrderService(orders, grants, tx, cfg.Gateway, cfg.Notifier, cfg.Clock, application.Config{
		Currency:   cfg.Currency,
		AutoFulfil: cfg.AutoFulfil,
	}, logger)

	return &Module{
		service: service,
		sweeper: application.NewExpirySweeper(orders, cfg.Clock, cfg.ExpiryTTL, logger),
		reaper:  application.NewRetentionReaper(orders, tx, cfg.Archiver, cfg.Clock, cfg.Retention, logger),
		handler: order_http.NewOrderHandler(service, logger),
		webhook: order_http.NewWebhookHandler(service, cfg.WebhookSecret, logger),
		cfg:     cfg,
	}
}

// HTTPHandler returns the HTTP handler
func (m *Module) HTTPHandler() *order_http.OrderHandler {
	return m.handler
}

func (m *Module) WebhookHandler() *order_http.WebhookHandler {
	return m.webhook
}

func (m *Module) Service() *application.OrderService {
	return m.service
}

// Tasks returns the periodic expiry and retention jobs.
func (m *Module) Tasks() []worker.Task {
	return []worker.Task{
		{Name: TaskExpire, Interval: m.cfg.SweepInterval, Run: m.sweeper.Run},
		{Name: TaskReap, Interval: m.cfg.ReapInterval, Run: m.reaper.Run},
	}
}
