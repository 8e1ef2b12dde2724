package core

import (
	"context"
	"errors"
	"time"

	"github.com/target/mmk-sweeper/internal/domain/model"
)

// This file contains the job-store port the sweeper consumes.
// Store backends in internal/data implement it; the service layer depends only on these interfaces.

// ErrTransient marks store failures that are expected to succeed on a later attempt
// (timeouts, serialization conflicts, aborted MULTI/EXEC). Nothing retries internally;
// the tag lets callers and metrics tell them apart.
var ErrTransient = errors.New("transient job store error")

// ErrInvalidBatchSize is returned when a page limit is not positive.
var ErrInvalidBatchSize = errors.New("batch size must be greater than zero")

// JobPageReader provides paginated read access to the job indexes.
// Entries are returned in a stable order for a given store state; offset counts
// entries currently in the index, so deleting entries shifts later ones down.
type JobPageReader interface {
	FailedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.FailedJob], error)
	SucceededJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.SucceededJob], error)
	DeletedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.DeletedJob], error)
}

// TxBeginner opens write transactions against the job store.
type TxBeginner interface {
	BeginTx(ctx context.Context) (StoreTx, error)
}

// StoreTx is a write-only unit of work. Staging methods queue operations;
// Commit applies all of them atomically or none of them.
// Rollback discards staged operations and is a no-op after Commit, so callers
// should always `defer tx.Rollback()`.
type StoreTx interface {
	// MarkDeleted moves the job to the Deleted state.
	MarkDeleted(jobID string)
	// RemoveFromIndex removes the job identifier from the category's index.
	RemoveFromIndex(category model.JobCategory, jobID string)
	// ExpireJob expires every key that belongs to the job after ttl.
	// A non-positive ttl removes them immediately.
	ExpireJob(jobID string, ttl time.Duration)
	Commit(ctx context.Context) error
	Rollback() error
}

// RecurringJobStore lists and removes recurring schedules.
type RecurringJobStore interface {
	RecurringJobs(ctx context.Context) ([]model.RecurringJob, error)
	// RemoveRecurringJobIfExists removes the schedule; removing an absent id is not an error.
	RemoveRecurringJobIfExists(ctx context.Context, id string) error
}

// JobStore is the full job-store capability the sweeper requires.
type JobStore interface {
	JobPageReader
	TxBeginner
	RecurringJobStore
}

// CategoryCounter is an optional extension for stores that can report index sizes.
type CategoryCounter interface {
	CountJobs(ctx context.Context, category model.JobCategory) (int64, error)
}
