// Package sweeper provides adapters for running job-store sweeps on cron schedules.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mmk-sweeper/config"
	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/domain/job"
	"github.com/target/mmk-sweeper/internal/domain/model"
	"github.com/target/mmk-sweeper/internal/observability/statsd"
	"github.com/target/mmk-sweeper/internal/service"
)

// Runner wires a SweeperService to a job store and runs single operations with
// the configured timeout.
type Runner struct {
	svc     *service.SweeperService
	logger  *slog.Logger
	timeout time.Duration
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Store     core.JobStore
	Config    config.SweeperConfig
	StoreName string
	Logger    *slog.Logger

	// Optional dependency injection for testing/decoupling
	Metrics  statsd.Sink
	Notifier service.FailureNotifier
	Clock    func() time.Time
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	svc, err := wireSweeperService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{
		svc:     svc,
		logger:  opts.Logger.With("component", "sweeper_runner"),
		timeout: opts.Config.RunTimeout,
	}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Store == nil {
		return errors.New("job store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Config.Sanitize()
	return nil
}

func wireSweeperService(opts RunnerOptions) (*service.SweeperService, error) {
	policy := job.NewRetentionPolicy(opts.Config.RetentionConfig(), opts.Clock)
	return service.NewSweeperService(service.SweeperServiceOptions{
		Store:     opts.Store,
		Policy:    policy,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
		Notifier:  opts.Notifier,
		StoreName: opts.StoreName,
		Clock:     opts.Clock,
	})
}

// Service exposes the wired service for one-shot callers such as the admin CLI.
func (r *Runner) Service() *service.SweeperService {
	return r.svc
}

// RunOnce runs op, bounded by the configured run timeout.
func (r *Runner) RunOnce(ctx context.Context, op model.Operation) (model.SweepResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.svc.Run(ctx, op)
}

// SchedulesFromConfig pairs every enabled operation with its cron expression, in the
// order the operations are configured.
func SchedulesFromConfig(cfg config.SweeperConfig) ([]Schedule, error) {
	ops, err := cfg.EnabledOperations()
	if err != nil {
		return nil, err
	}
	out := make([]Schedule, 0, len(ops))
	for _, op := range ops {
		spec := cfg.Schedule(op)
		if spec == "" {
			return nil, fmt.Errorf("no schedule configured for %s", op)
		}
		out = append(out, Schedule{Operation: op, Spec: spec})
	}
	return out, nil
}
