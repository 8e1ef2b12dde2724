package config

import (
	"strings"
	"time"

	"github.com/target/mmk-sweeper/internal/domain/job"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

const maxSweepBatchSize = 10000

// SweeperConfig controls the retention policy and when each sweep runs.
// All variables carry the SWEEPER_ prefix.
type SweeperConfig struct {
	// BatchSize is the page size used by every paginated sweep.
	BatchSize int `env:"BATCH_SIZE" envDefault:"250"`

	// NotifyOnUnhandledFailedJobs logs a warning for each failed job delete-failed keeps.
	NotifyOnUnhandledFailedJobs bool `env:"NOTIFY_ON_UNHANDLED_FAILED_JOBS" envDefault:"true"`

	// FailedMaxAge and SucceededMaxAge delete records older than the given age.
	// Zero leaves the predicate unset so only records without payload are removed.
	FailedMaxAge    time.Duration `env:"FAILED_MAX_AGE"    envDefault:"0"`
	SucceededMaxAge time.Duration `env:"SUCCEEDED_MAX_AGE" envDefault:"0"`

	// Operations is a comma-delimited list of sweeps the scheduler runs.
	Operations string `env:"OPERATIONS" envDefault:"delete-failed,delete-succeeded,purge-garbage"`

	// Five-field cron expressions (descriptors such as @hourly are accepted).
	DeleteFailedSchedule         string `env:"SCHEDULE_DELETE_FAILED"          envDefault:"*/15 * * * *"`
	DeleteFailedSilentlySchedule string `env:"SCHEDULE_DELETE_FAILED_SILENTLY" envDefault:"*/15 * * * *"`
	DeleteSucceededSchedule      string `env:"SCHEDULE_DELETE_SUCCEEDED"       envDefault:"0 * * * *"`
	PurgeGarbageSchedule         string `env:"SCHEDULE_PURGE_GARBAGE"          envDefault:"30 * * * *"`
	DeleteRecurringSchedule      string `env:"SCHEDULE_DELETE_RECURRING"       envDefault:"0 3 * * *"`

	// RunOnStart runs every enabled operation once before the first tick.
	RunOnStart bool `env:"RUN_ON_START" envDefault:"false"`

	// RunTimeout bounds a single sweep; zero means no limit.
	RunTimeout time.Duration `env:"RUN_TIMEOUT" envDefault:"10m"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (c *SweeperConfig) Sanitize() {
	if c.BatchSize < 1 {
		c.BatchSize = job.DefaultBatchSize
	}
	if c.BatchSize > maxSweepBatchSize {
		c.BatchSize = maxSweepBatchSize
	}
	if c.FailedMaxAge < 0 {
		c.FailedMaxAge = 0
	}
	if c.SucceededMaxAge < 0 {
		c.SucceededMaxAge = 0
	}
	if c.RunTimeout < 0 {
		c.RunTimeout = 0
	}
	for _, s := range []*string{
		&c.DeleteFailedSchedule,
		&c.DeleteFailedSilentlySchedule,
		&c.DeleteSucceededSchedule,
		&c.PurgeGarbageSchedule,
		&c.DeleteRecurringSchedule,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// EnabledOperations parses Operations.
func (c *SweeperConfig) EnabledOperations() ([]model.Operation, error) {
	return model.ParseOperations(c.Operations)
}

// Schedule returns the cron expression for op, or "" for an unknown operation.
func (c *SweeperConfig) Schedule(op model.Operation) string {
	switch op {
	case model.OperationDeleteFailed:
		return c.DeleteFailedSchedule
	case model.OperationDeleteFailedSilently:
		return c.DeleteFailedSilentlySchedule
	case model.OperationDeleteSucceeded:
		return c.DeleteSucceededSchedule
	case model.OperationPurgeGarbage:
		return c.PurgeGarbageSchedule
	case model.OperationDeleteRecurring:
		return c.DeleteRecurringSchedule
	default:
		return ""
	}
}

// RetentionConfig converts the env settings into the policy builder's input.
func (c *SweeperConfig) RetentionConfig() job.RetentionConfig {
	return job.RetentionConfig{
		BatchSize:                   c.BatchSize,
		FailedMaxAge:                c.FailedMaxAge,
		SucceededMaxAge:             c.SucceededMaxAge,
		NotifyOnUnhandledFailedJobs: c.NotifyOnUnhandledFailedJobs,
	}
}
