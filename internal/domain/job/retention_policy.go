// Package job holds the retention rules that decide which job records the sweeper may remove.
package job

import (
	"time"

	"github.com/target/mmk-sweeper/internal/domain/model"
)

// DefaultBatchSize is the page size used when a policy does not set one.
const DefaultBatchSize = 250

// RetentionPolicy decides whether failed and succeeded job records should be deleted.
// A nil predicate means "keep": the corresponding records are never deleted by policy.
// A policy is treated as immutable for the duration of one sweep.
type RetentionPolicy struct {
	BatchSize                   int
	ShouldDeleteFailedJob       func(*model.FailedJob) bool
	ShouldDeleteSucceededJob    func(*model.SucceededJob) bool
	NotifyOnUnhandledFailedJobs bool
}

// DefaultRetentionPolicy returns a policy with the default batch size, notifications
// enabled and no predicates.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		BatchSize:                   DefaultBatchSize,
		NotifyOnUnhandledFailedJobs: true,
	}
}

// RetentionConfig carries the age-based settings a policy can be built from.
type RetentionConfig struct {
	BatchSize                   int
	FailedMaxAge                time.Duration
	SucceededMaxAge             time.Duration
	NotifyOnUnhandledFailedJobs bool
}

// NewRetentionPolicy builds a policy whose predicates delete records older than the
// configured max ages. A zero max age leaves the predicate unset.
func NewRetentionPolicy(cfg RetentionConfig, now func() time.Time) RetentionPolicy {
	if now == nil {
		now = time.Now
	}
	p := RetentionPolicy{
		BatchSize:                   cfg.BatchSize,
		NotifyOnUnhandledFailedJobs: cfg.NotifyOnUnhandledFailedJobs,
	}
	if maxAge := cfg.FailedMaxAge; maxAge > 0 {
		p.ShouldDeleteFailedJob = func(j *model.FailedJob) bool {
			return olderThan(j.FailedAt, now().Add(-maxAge))
		}
	}
	if maxAge := cfg.SucceededMaxAge; maxAge > 0 {
		p.ShouldDeleteSucceededJob = func(j *model.SucceededJob) bool {
			return olderThan(j.SucceededAt, now().Add(-maxAge))
		}
	}
	return p.Normalize()
}

// Normalize returns a copy with a usable batch size.
func (p RetentionPolicy) Normalize() RetentionPolicy {
	if p.BatchSize < 1 {
		p.BatchSize = DefaultBatchSize
	}
	return p
}

// DeleteFailed reports whether a failed record should be deleted. Absent payloads and
// payloads without a job invocation are corrupt and always deleted; otherwise the
// policy predicate decides, defaulting to keep.
func (p RetentionPolicy) DeleteFailed(j *model.FailedJob) bool {
	if j == nil || j.Invocation == nil {
		return true
	}
	if p.ShouldDeleteFailedJob == nil {
		return false
	}
	return p.ShouldDeleteFailedJob(j)
}

// DeleteSucceeded reports whether a succeeded record should be deleted. Absent payloads
// are always deleted; otherwise the policy predicate decides, defaulting to keep.
func (p RetentionPolicy) DeleteSucceeded(j *model.SucceededJob) bool {
	if j == nil {
		return true
	}
	if p.ShouldDeleteSucceededJob == nil {
		return false
	}
	return p.ShouldDeleteSucceededJob(j)
}

// olderThan treats a missing timestamp as not old enough; records without one are left
// for an explicit predicate to handle.
func olderThan(ts *time.Time, cutoff time.Time) bool {
	return ts != nil && ts.Before(cutoff)
}
