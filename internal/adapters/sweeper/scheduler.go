package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/target/mmk-sweeper/internal/domain/model"
	"github.com/target/mmk-sweeper/internal/observability/statsd"
)

// OperationRunner runs a single sweep operation.
type OperationRunner interface {
	RunOnce(ctx context.Context, op model.Operation) (model.SweepResult, error)
}

// Schedule pairs an operation with a five-field cron expression or descriptor.
type Schedule struct {
	Operation model.Operation
	Spec      string
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Runner OperationRunner
	// Schedules are registered, and run on start, in the given order.
	Schedules  []Schedule
	RunOnStart bool
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// Scheduler triggers sweep operations on cron schedules. A tick that arrives while the
// previous run of the same operation is still in flight is skipped.
type Scheduler struct {
	mu         sync.Mutex
	runner     OperationRunner
	cron       *cron.Cron
	ops        []model.Operation
	schedules  map[model.Operation]string
	locks      map[model.Operation]*sync.Mutex
	runOnStart bool
	logger     *slog.Logger
	metrics    statsd.Sink

	ctx     context.Context
	cancel  context.CancelFunc
	startWG sync.WaitGroup
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewScheduler validates every schedule and registers the operations.
func NewScheduler(opts SchedulerOptions) (*Scheduler, error) {
	if opts.Runner == nil {
		return nil, errors.New("operation runner is required")
	}
	if len(opts.Schedules) == 0 {
		return nil, errors.New("at least one scheduled operation is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.Discard
	}

	s := &Scheduler{
		runner:     opts.Runner,
		schedules:  make(map[model.Operation]string, len(opts.Schedules)),
		locks:      make(map[model.Operation]*sync.Mutex, len(opts.Schedules)),
		runOnStart: opts.RunOnStart,
		logger:     logger.With("component", "sweeper_scheduler"),
		metrics:    metrics,
	}
	for _, sc := range opts.Schedules {
		op := sc.Operation
		if !op.Valid() {
			return nil, fmt.Errorf("unknown operation %q", op)
		}
		if _, dup := s.schedules[op]; dup {
			return nil, fmt.Errorf("operation %s is scheduled more than once", op)
		}
		if _, err := cronParser.Parse(sc.Spec); err != nil {
			return nil, fmt.Errorf("invalid schedule for %s: %w", op, err)
		}
		s.ops = append(s.ops, op)
		s.schedules[op] = sc.Spec
		s.locks[op] = &sync.Mutex{}
	}
	return s, nil
}

// Start registers the cron entries and begins triggering them. Operations run with a
// context derived from ctx that Stop cancels.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	c := cron.New(cron.WithParser(cronParser))
	for _, op := range s.ops {
		if _, err := c.AddFunc(s.schedules[op], func() { s.trigger(op) }); err != nil {
			s.cancel()
			return fmt.Errorf("register %s: %w", op, err)
		}
	}
	s.cron = c

	if s.runOnStart {
		s.startWG.Add(1)
		go func() {
			defer s.startWG.Done()
			for _, op := range s.ops {
				if s.ctx.Err() != nil {
					return
				}
				s.trigger(op)
			}
		}()
	}

	c.Start()
	s.logger.InfoContext(ctx, "sweeper scheduler started", "operations", len(s.ops), "run_on_start", s.runOnStart)
	return nil
}

// Stop cancels in-flight sweeps and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		s.startWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.InfoContext(ctx, "sweeper scheduler stopped")
		s.cron = nil
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running sweeps: %w", ctx.Err())
	}
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits up to
// shutdownTimeout for in-flight sweeps. A non-positive timeout waits indefinitely.
func (s *Scheduler) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx := context.WithoutCancel(ctx)
	if shutdownTimeout > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(stopCtx, shutdownTimeout)
		defer cancel()
	}
	return s.Stop(stopCtx)
}

// Entries returns the registered operations and their schedules.
func (s *Scheduler) Entries() map[model.Operation]string {
	out := make(map[model.Operation]string, len(s.schedules))
	for op, spec := range s.schedules {
		out[op] = spec
	}
	return out
}

func (s *Scheduler) trigger(op model.Operation) {
	lock := s.locks[op]
	if !lock.TryLock() {
		s.logger.Warn("sweep still running, skipping tick", "operation", op)
		s.metrics.Count("sweeper.tick_skipped", 1, map[string]string{"operation": string(op)})
		return
	}
	defer lock.Unlock()

	ctx := s.ctx
	if ctx.Err() != nil {
		return
	}
	// The service logs and reports failures itself; the loop keeps running.
	if _, err := s.runner.RunOnce(ctx, op); err != nil {
		s.logger.DebugContext(ctx, "scheduled sweep returned error", "operation", op, "error", err)
	}
}
