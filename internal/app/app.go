// Package app assembles the modules, background workers and HTTP surface from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/album-market/internal/gateway"
	"github.com/saransh1220/album-market/internal/gateway/middleware"
	"github.com/saransh1220/album-market/internal/modules/notification"
	notificationDomain "github.com/saransh1220/album-market/internal/modules/notification/domain"
	"github.com/saransh1220/album-market/internal/modules/notification/infrastructure/email"
	"github.com/saransh1220/album-market/internal/modules/order"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	archive "github.com/saransh1220/album-market/internal/modules/order/infrastructure/archive/s3"
	"github.com/saransh1220/album-market/internal/modules/order/infrastructure/payment/razorpay"
	"github.com/saransh1220/album-market/internal/shared/clock"
	"github.com/saransh1220/album-market/internal/shared/infrastructure/config"
	"github.com/saransh1220/album-market/internal/shared/infrastructure/database"
	"github.com/saransh1220/album-market/internal/worker"
	"golang.org/x/sync/errgroup"
)

// App owns the process-wide resources.
type App struct {
	cfg    config.Config
	db     *sqlx.DB
	redis  *redis.Client
	logger *slog.Logger

	Notifications *notification.Module
	Orders        *order.Module
	Scheduler     *worker.Scheduler
	Handler       http.Handler
}

// New connects to Postgres (and Redis when enabled) and assembles the application.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		if rdb, err = database.NewRedis(ctx, cfg.Redis.RedisConfig); err != nil {
			db.Close()
			return nil, err
		}
	}

	a, err := Assemble(ctx, cfg, db, rdb, logger)
	if err != nil {
		db.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, err
	}
	return a, nil
}

// Assemble wires the application on top of already open connections. rdb may be nil.
func Assemble(ctx context.Context, cfg config.Config, db *sqlx.DB, rdb *redis.Client, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mailer, err := newMailer(cfg.SendGrid, logger)
	if err != nil {
		return nil, err
	}
	notifications := notification.NewModule(db, notification.Config{
		QueueSize: cfg.Orders.NotifyQueueSize,
		Mailer:    mailer,
	}, logger)

	archiver, err := newArchiver(ctx, cfg.Archive)
	if err != nil {
		notifications.Shutdown()
		return nil, err
	}

	orders := order.NewModule(db, order.Config{
		Currency:      cfg.Razorpay.Currency,
		AutoFulfil:    cfg.Orders.AutoFulfil,
		ExpiryTTL:     cfg.Orders.ExpiryTTL,
		SweepInterval: cfg.Orders.SweepInterval,
		Retention:     cfg.Orders.Retention,
		ReapInterval:  cfg.Orders.ReapInterval,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		Gateway: razorpay.NewGateway(razorpay.Config{
			KeyID:       cfg.Razorpay.KeyID,
			KeySecret:   cfg.Razorpay.KeySecret,
			MaxAttempts: cfg.Razorpay.MaxAttempts,
			BaseDelay:   cfg.Razorpay.BaseDelay,
		}, logger),
		Notifier: notifications.Dispatcher(),
		Archiver: archiver,
		Clock:    clock.NewSystem(),
	}, logger)

	var locker worker.Locker
	if rdb != nil {
		locker = worker.NewRedisLocker(rdb, cfg.Redis.KeyPrefix, logger)
	}
	scheduler := worker.NewScheduler(locker, logger)
	for _, t := range orders.Tasks() {
		scheduler.Add(t)
	}

	handler := gateway.NewHandler(gateway.RouterConfig{
		AuthMiddleware:      middleware.NewAuthMiddleware(cfg.JWT.Secret),
		OrderHandler:        orders.HTTPHandler(),
		WebhookHandler:      orders.WebhookHandler(),
		NotificationHandler: notifications.HTTPHandler(),
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	logger.Info("application assembled",
		"env", cfg.Env,
		"redis_lock", rdb != nil,
		"archive", archiver != nil,
		"email", mailer != nil,
		"auto_fulfil", cfg.Orders.AutoFulfil,
	)

	return &App{
		cfg:           cfg,
		db:            db,
		redis:         rdb,
		logger:        logger,
		Notifications: notifications,
		Orders:        orders,
		Scheduler:     scheduler,
		Handler:       handler,
	}, nil
}

// Run serves HTTP, delivers notifications and runs the sweepers until ctx is done
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gateway.NewServer(a.cfg.Server.Port, a.Handler, a.logger).Run(ctx)
	})
	g.Go(func() error {
		return a.Notifications.Run(ctx)
	})
	g.Go(func() error {
		a.Scheduler.Start(ctx)
		<-ctx.Done()
		a.Scheduler.Stop()
		return nil
	})

	return g.Wait()
}

// Close releases connections. It is safe to call after Run returns.
func (a *App) Close() {
	a.Notifications.Shutdown()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("postgres close failed", "error", err)
	}
}

// newMailer returns a nil interface when no SendGrid key is configured.
func newMailer(cfg config.SendGridConfig, logger *slog.Logger) (notificationDomain.Mailer, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	m, err := email.NewSendGridMailer(cfg.APIKey, cfg.FromEmail, cfg.FromName, logger)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: %w", err)
	}
	return m, nil
}

// newArchiver returns a nil interface when no bucket is configured.
func newArchiver(ctx context.Context, cfg config.ArchiveConfig) (domain.OrderArchiver, error) {
	if cfg.BucketName == "" {
		return nil, nil
	}
	a, err := archive.NewArchiver(ctx, archive.Config{
		BucketName: cfg.BucketName,
		Region:     cfg.Region,
		Endpoint:   cfg.Endpoint,
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		UseSSL:     cfg.UseSSL,
		Prefix:     cfg.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return a, nil
}
