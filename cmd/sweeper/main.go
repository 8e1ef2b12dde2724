package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/mmk-sweeper/config"
	"github.com/target/mmk-sweeper/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)
	return bootstrap.RunSweeper(&cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	ops, _ := cfg.Sweeper.EnabledOperations()
	logger.InfoContext(ctx, "starting job store sweeper",
		"store_backend", cfg.Store.Backend,
		"batch_size", cfg.Sweeper.BatchSize,
		"operations", ops,
		"run_on_start", cfg.Sweeper.RunOnStart,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled(),
		"notifications_enabled", cfg.Observability.Notifications.AnySinkEnabled())
}
