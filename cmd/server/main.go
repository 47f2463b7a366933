package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saransh1220/album-market/internal/app"
	"github.com/saransh1220/album-market/internal/shared/infrastructure/config"
	"github.com/saransh1220/album-market/migrations"
	"github.com/saransh1220/album-market/pkg/migration"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Migrations.AutoMigrate {
		if err := migration.AutoMigrate(cfg.Database.URL(), migrations.FS, logger); err != nil {
			return err
		}
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

func newLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == config.EnvProduction {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
