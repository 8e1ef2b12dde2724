package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-sweeper/config"
	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/data"
	"github.com/target/mmk-sweeper/internal/data/memstore"
)

// JobStoreHandle owns a connected job store and the clients behind it.
type JobStoreHandle struct {
	Store   core.JobStore
	Backend config.StoreBackend
	// DB is set for the postgres backend.
	DB *sql.DB

	closers []func() error
}

// Close releases every client the handle opened.
func (h *JobStoreHandle) Close() error {
	if h == nil {
		return nil
	}
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// OpenJobStore connects the configured backend.
func OpenJobStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*JobStoreHandle, error) {
	if cfg == nil {
		return nil, errors.New("app config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis job store: %w", err)
		}
		return newRedisHandle(client, cfg.Store), nil

	case config.StoreBackendPostgres:
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres job store: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		}
		return &JobStoreHandle{
			Store:   data.NewPostgresJobStore(db, data.PostgresJobStoreOptions{}),
			Backend: config.StoreBackendPostgres,
			DB:      db,
			closers: []func() error{db.Close},
		}, nil

	case config.StoreBackendMemory:
		logger.WarnContext(ctx, "using in-memory job store; nothing is persisted")
		store := memstore.New(nil)
		return &JobStoreHandle{
			Store:   store,
			Backend: config.StoreBackendMemory,
			closers: []func() error{store.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

func newRedisHandle(client redis.UniversalClient, cfg config.StoreConfig) *JobStoreHandle {
	return &JobStoreHandle{
		Store:   data.NewRedisJobStore(client, data.RedisJobStoreOptions{Prefix: cfg.KeyPrefix}),
		Backend: config.StoreBackendRedis,
		closers: []func() error{client.Close},
	}
}
