package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/mmk-sweeper/config"
	"github.com/target/mmk-sweeper/internal/adapters/sweeper"
)

// shutdownWaitTimeout bounds how long in-flight sweeps may run after a shutdown signal.
const shutdownWaitTimeout = 30 * time.Second

// SweeperDeps groups everything needed to run sweeps against one store.
type SweeperDeps struct {
	Config        *config.AppConfig
	Store         *JobStoreHandle
	Observability ObservabilityContainer
	Logger        *slog.Logger
}

// NewSweeperRunner wires the runner for the connected store.
func NewSweeperRunner(deps SweeperDeps) (*sweeper.Runner, error) {
	if deps.Config == nil || deps.Store == nil {
		return nil, errors.New("config and store are required")
	}
	opts := sweeper.RunnerOptions{
		Store:     deps.Store.Store,
		Config:    deps.Config.Sweeper,
		StoreName: string(deps.Store.Backend),
		Logger:    deps.Logger,
		Metrics:   deps.Observability.MetricsSink,
	}
	// A typed nil would defeat the service's nil check.
	if fn := deps.Observability.FailureNotifier; fn.Enabled() {
		opts.Notifier = fn
	}
	return sweeper.NewRunner(opts)
}

// RunSweeper connects the job store and runs the scheduled sweeps until SIGINT or
// SIGTERM, or until the scheduler fails.
func RunSweeper(cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("app config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := OpenJobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "job store", store.Close)

	obs := BuildObservability(logger, cfg.Observability)
	defer closeLogged(logger, "metrics client", obs.Close)

	runner, err := NewSweeperRunner(SweeperDeps{Config: cfg, Store: store, Observability: obs, Logger: logger})
	if err != nil {
		return err
	}

	schedules, err := sweeper.SchedulesFromConfig(cfg.Sweeper)
	if err != nil {
		return fmt.Errorf("build schedules: %w", err)
	}
	sched, err := sweeper.NewScheduler(sweeper.SchedulerOptions{
		Runner:     runner,
		Schedules:  schedules,
		RunOnStart: cfg.Sweeper.RunOnStart,
		Logger:     logger,
		Metrics:    obs.MetricsSink,
	})
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx, shutdownWaitTimeout) }()

	return waitForShutdown(shutdownConfig{
		cancel: cancel,
		done:   done,
		logger: logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel context.CancelFunc
	// done receives the scheduler's exit error.
	done    <-chan error
	logger  *slog.Logger
	signals <-chan os.Signal
	timeout time.Duration
}

// waitForShutdown waits for a shutdown signal or scheduler exit.
func waitForShutdown(cfg shutdownConfig) error {
	quit := cfg.signals
	if quit == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		quit = ch
	}
	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = shutdownWaitTimeout + 5*time.Second
	}

	select {
	case sig := <-quit:
		cfg.logger.Info("shutting down sweeper...", "signal", sig.String())
		cfg.cancel()
		select {
		case err := <-cfg.done:
			if err != nil {
				return fmt.Errorf("graceful stop: %w", err)
			}
			cfg.logger.Info("sweeper stopped")
			return nil
		case <-time.After(timeout):
			cfg.logger.Warn("timeout waiting for sweeper to stop")
			return errors.New("timeout waiting for sweeper to stop")
		}
	case err := <-cfg.done:
		cfg.cancel()
		if err != nil {
			cfg.logger.Error("sweeper scheduler failed", "error", err)
			return err
		}
		return nil
	}
}

func closeLogged(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("failed to close "+name, "error", err)
	}
}
