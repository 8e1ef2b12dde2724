package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/domain/job"
	"github.com/target/mmk-sweeper/internal/domain/model"
	obserrors "github.com/target/mmk-sweeper/internal/observability/errors"
	"github.com/target/mmk-sweeper/internal/observability/metrics"
	"github.com/target/mmk-sweeper/internal/observability/notify"
	"github.com/target/mmk-sweeper/internal/observability/statsd"
)

// ErrUnknownOperation is returned by Run for an operation name it does not know.
var ErrUnknownOperation = errors.New("unknown sweep operation")

// FailureNotifier receives an alert for every failed sweep operation.
type FailureNotifier interface {
	NotifySweepFailure(ctx context.Context, payload notify.SweepFailurePayload)
}

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Store     core.JobStore       // Required: job store
	Policy    job.RetentionPolicy // Optional: zero value keeps everything the store still has a payload for
	Logger    *slog.Logger        // Optional: structured logger
	Metrics   statsd.Sink         // Optional: metrics sink (StatsD-compatible)
	Notifier  FailureNotifier     // Optional: failure alerts
	StoreName string              // Optional: backend name used in tags and alerts
	Clock     func() time.Time    // Optional: defaults to time.Now
	NewRunID  func() string       // Optional: defaults to random UUIDs
}

// SweeperService runs the maintenance sweeps against a job store.
//
// Each operation binds the paginated deletion engine to one job category and one
// predicate, logs a start and completion event, and returns the wrapped error after
// logging it when the sweep fails. Operations are synchronous; concurrent calls are
// only as safe as the store's transaction isolation.
type SweeperService struct {
	store     core.JobStore
	policy    job.RetentionPolicy
	logger    *slog.Logger
	metrics   statsd.Sink
	notifier  FailureNotifier
	storeName string
	clock     func() time.Time
	newRunID  func() string
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "sweeper_service")

	policy := opts.Policy.Normalize()
	logger.Debug("SweeperService initialized",
		"store", opts.StoreName,
		"batch_size", policy.BatchSize,
		"notify_on_unhandled_failed_jobs", policy.NotifyOnUnhandledFailedJobs,
		"failed_predicate", policy.ShouldDeleteFailedJob != nil,
		"succeeded_predicate", policy.ShouldDeleteSucceededJob != nil,
	)

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	return &SweeperService{
		store:     opts.Store,
		policy:    policy,
		logger:    logger,
		metrics:   opts.Metrics,
		notifier:  opts.Notifier,
		storeName: opts.StoreName,
		clock:     clock,
		newRunID:  newRunID,
	}, nil
}

// Policy returns the normalized retention policy in use.
func (s *SweeperService) Policy() job.RetentionPolicy {
	return s.policy
}

// Run dispatches a sweep operation by name.
func (s *SweeperService) Run(ctx context.Context, op model.Operation) (model.SweepResult, error) {
	switch op {
	case model.OperationDeleteFailed:
		return s.DeleteFailedJobs(ctx)
	case model.OperationDeleteFailedSilently:
		return s.DeleteFailedJobsSilently(ctx)
	case model.OperationDeleteSucceeded:
		return s.DeleteSucceededJobs(ctx)
	case model.OperationPurgeGarbage:
		return s.PurgeGarbage(ctx)
	case model.OperationDeleteRecurring:
		return s.DeleteRecurringJobs(ctx)
	default:
		return model.SweepResult{Operation: op}, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}

// RunAll runs the operations in order. A failed operation does not stop the ones after
// it; all failures are joined into the returned error.
func (s *SweeperService) RunAll(ctx context.Context, ops []model.Operation) ([]model.SweepResult, error) {
	results := make([]model.SweepResult, 0, len(ops))
	var errs []error
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.Run(ctx, op)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// DeleteFailedJobs deletes failed jobs that are corrupt (no payload or no invocation)
// or selected by the policy. Kept jobs are reported as warnings when the policy asks
// for notifications.
func (s *SweeperService) DeleteFailedJobs(ctx context.Context) (model.SweepResult, error) {
	return s.track(ctx, model.OperationDeleteFailed, "deleting failed jobs",
		func(ctx context.Context, res *model.SweepResult, log *slog.Logger) error {
			var onSkip func(context.Context, string, *model.FailedJob)
			if s.policy.NotifyOnUnhandledFailedJobs {
				onSkip = func(ctx context.Context, id string, p *model.FailedJob) {
					if p == nil {
						return
					}
					res.Warned++
					log.WarnContext(ctx, "unhandled failed job",
						"job_id", id,
						"exception_type", p.ExceptionType,
						"exception_details", p.ExceptionDetails,
					)
				}
			}

			out, err := PageDelete(ctx, s.store, PageDeleteParams[model.FailedJob]{
				Category: model.CategoryFailed,
				Fetch:    s.store.FailedJobs,
				ShouldDelete: func(p *model.FailedJob) (bool, error) {
					return s.policy.DeleteFailed(p), nil
				},
				OnSkip:    onSkip,
				BatchSize: s.policy.BatchSize,
				Logger:    log,
			})
			res.Add(out.Deleted, out.Skipped, out.Pages)
			return err
		})
}

// DeleteFailedJobsSilently deletes every failed job without consulting the policy.
func (s *SweeperService) DeleteFailedJobsSilently(ctx context.Context) (model.SweepResult, error) {
	return s.track(ctx, model.OperationDeleteFailedSilently, "deleting failed jobs (silent)",
		func(ctx context.Context, res *model.SweepResult, log *slog.Logger) error {
			out, err := PageDelete(ctx, s.store, PageDeleteParams[model.FailedJob]{
				Category:     model.CategoryFailed,
				Fetch:        s.store.FailedJobs,
				ShouldDelete: deleteAlways[model.FailedJob],
				BatchSize:    s.policy.BatchSize,
				Logger:       log,
			})
			res.Add(out.Deleted, out.Skipped, out.Pages)
			return err
		})
}

// DeleteSucceededJobs deletes succeeded jobs without a payload or selected by the policy.
func (s *SweeperService) DeleteSucceededJobs(ctx context.Context) (model.SweepResult, error) {
	return s.track(ctx, model.OperationDeleteSucceeded, "deleting succeeded jobs",
		func(ctx context.Context, res *model.SweepResult, log *slog.Logger) error {
			out, err := PageDelete(ctx, s.store, PageDeleteParams[model.SucceededJob]{
				Category: model.CategorySucceeded,
				Fetch:    s.store.SucceededJobs,
				ShouldDelete: func(p *model.SucceededJob) (bool, error) {
					return s.policy.DeleteSucceeded(p), nil
				},
				BatchSize: s.policy.BatchSize,
				Logger:    log,
			})
			res.Add(out.Deleted, out.Skipped, out.Pages)
			return err
		})
}

// PurgeGarbage deletes failed jobs that failed because they expired, then empties the
// deleted index. Failed jobs that did not expire are left for DeleteFailedJobs.
func (s *SweeperService) PurgeGarbage(ctx context.Context) (model.SweepResult, error) {
	return s.track(ctx, model.OperationPurgeGarbage, "purging expired and deleted jobs",
		func(ctx context.Context, res *model.SweepResult, log *slog.Logger) error {
			expired, err := PageDelete(ctx, s.store, PageDeleteParams[model.FailedJob]{
				Category: model.CategoryFailed,
				Fetch:    s.store.FailedJobs,
				ShouldDelete: func(p *model.FailedJob) (bool, error) {
					return job.IsExpiredFailure(p), nil
				},
				BatchSize: s.policy.BatchSize,
				Logger:    log,
			})
			res.Add(expired.Deleted, expired.Skipped, expired.Pages)
			res.Expired += expired.Deleted
			if err != nil {
				return err
			}

			deleted, err := PageDelete(ctx, s.store, PageDeleteParams[model.DeletedJob]{
				Category:     model.CategoryDeleted,
				Fetch:        s.store.DeletedJobs,
				ShouldDelete: deleteAlways[model.DeletedJob],
				BatchSize:    s.policy.BatchSize,
				Logger:       log,
			})
			res.Add(deleted.Deleted, deleted.Skipped, deleted.Pages)
			return err
		})
}

// DeleteRecurringJobs removes every recurring schedule. It lists the schedules once and
// removes each by id; ids that vanished in between are not an error.
func (s *SweeperService) DeleteRecurringJobs(ctx context.Context) (model.SweepResult, error) {
	return s.track(ctx, model.OperationDeleteRecurring, "removing recurring jobs",
		func(ctx context.Context, res *model.SweepResult, log *slog.Logger) error {
			jobs, err := s.store.RecurringJobs(ctx)
			if err != nil {
				return fmt.Errorf("list recurring jobs: %w", err)
			}
			res.Pages = 1
			for _, rj := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.store.RemoveRecurringJobIfExists(ctx, rj.ID); err != nil {
					return fmt.Errorf("remove recurring job %s: %w", rj.ID, err)
				}
				res.Deleted++
				log.InfoContext(ctx, "removed recurring job", "recurring_job_id", rj.ID, "cron", rj.Cron)
			}
			return nil
		})
}

// Snapshot reports the current size of every job index. It requires a store that can
// count its indexes.
func (s *SweeperService) Snapshot(ctx context.Context) (model.CategoryCounts, error) {
	counter, ok := s.store.(core.CategoryCounter)
	if !ok {
		return nil, errors.New("job store does not support counting")
	}

	categories := model.AllCategories()
	sizes := make([]int64, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			n, err := counter.CountJobs(gctx, category)
			if err != nil {
				return fmt.Errorf("count %s jobs: %w", category, err)
			}
			sizes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(model.CategoryCounts, len(categories))
	for i, category := range categories {
		counts[category] = sizes[i]
		metrics.EmitCategorySize(s.metrics, string(category), sizes[i])
	}
	return counts, nil
}

type sweepFunc func(ctx context.Context, res *model.SweepResult, log *slog.Logger) error

// track wraps a sweep with its start and completion events, metrics and failure alerts.
func (s *SweeperService) track(
	ctx context.Context,
	op model.Operation,
	startMsg string,
	fn sweepFunc,
) (model.SweepResult, error) {
	res := model.SweepResult{Operation: op, RunID: s.newRunID()}
	log := s.logger.With("operation", string(op), "run_id", res.RunID)

	log.InfoContext(ctx, startMsg, "batch_size", s.policy.BatchSize)
	start := s.clock()

	err := fn(ctx, &res, log)
	res.Duration = s.clock().Sub(start)

	metrics.EmitSweep(s.metrics, metrics.SweepMetric{
		Operation: string(op),
		Store:     s.storeName,
		Deleted:   res.Deleted,
		Skipped:   res.Skipped,
		Expired:   res.Expired,
		Duration:  res.Duration,
		Err:       err,
		Now:       s.clock(),
	})

	if err != nil {
		log.ErrorContext(ctx, "sweep failed",
			"error", err,
			"error_class", obserrors.Classify(err),
			"deleted", res.Deleted,
			"skipped", res.Skipped,
			"pages", res.Pages,
		)
		s.notifyFailure(ctx, res, err)
		return res, fmt.Errorf("%s: %w", op, err)
	}

	log.InfoContext(ctx, "sweep completed",
		"count", res.Deleted,
		"skipped", res.Skipped,
		"expired", res.Expired,
		"warned", res.Warned,
		"pages", res.Pages,
		"duration", res.Duration,
	)
	return res, nil
}

func (s *SweeperService) notifyFailure(ctx context.Context, res model.SweepResult, err error) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifySweepFailure(ctx, notify.SweepFailurePayload{
		Operation:  string(res.Operation),
		RunID:      res.RunID,
		Store:      s.storeName,
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Deleted:    res.Deleted,
		OccurredAt: s.clock(),
		Metadata: map[string]string{
			"batch_size": fmt.Sprint(s.policy.BatchSize),
		},
	})
}

func deleteAlways[T any](*T) (bool, error) {
	return true, nil
}
