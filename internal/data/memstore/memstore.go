// Package memstore is an in-process job store used by tests and by STORE_BACKEND=memory.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/data"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

type record struct {
	state     model.StateName
	failed    *model.FailedJob
	succeeded *model.SucceededJob
	deleted   *model.DeletedJob
	expireAt  time.Time
}

// Store keeps job indexes and payloads in memory. Index order is insertion order.
// It is safe for concurrent use; a committed transaction is applied under one lock.
type Store struct {
	mu        sync.Mutex
	indexes   map[model.JobCategory][]string
	jobs      map[string]*record
	recurring map[string]model.RecurringJob
	clock     data.TimeProvider
	closed    bool

	commitErr  error
	fetchCalls map[model.JobCategory]int
	commits    int
}

var (
	_ core.JobStore        = (*Store)(nil)
	_ core.CategoryCounter = (*Store)(nil)
)

// New creates an empty store. A nil clock uses wall time.
func New(clock data.TimeProvider) *Store {
	if clock == nil {
		clock = data.RealTimeProvider{}
	}
	return &Store{
		indexes:    make(map[model.JobCategory][]string),
		jobs:       make(map[string]*record),
		recurring:  make(map[string]model.RecurringJob),
		clock:      clock,
		fetchCalls: make(map[model.JobCategory]int),
	}
}

// AddFailed appends a job to the failed index. A nil payload leaves the job without
// stored data, as if it expired between listing and reading.
func (s *Store) AddFailed(id string, payload *model.FailedJob) {
	s.add(model.CategoryFailed, id, &record{state: model.StateFailed, failed: payload})
}

// AddSucceeded appends a job to the succeeded index.
func (s *Store) AddSucceeded(id string, payload *model.SucceededJob) {
	s.add(model.CategorySucceeded, id, &record{state: model.StateSucceeded, succeeded: payload})
}

// AddDeleted appends a job to the deleted index.
func (s *Store) AddDeleted(id string, payload *model.DeletedJob) {
	s.add(model.CategoryDeleted, id, &record{state: model.StateDeleted, deleted: payload})
}

// AddRecurring stores a recurring schedule.
func (s *Store) AddRecurring(job model.RecurringJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[job.ID] = job
}

func (s *Store) add(category model.JobCategory, id string, rec *record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[category] = append(s.indexes[category], id)
	if rec.failed == nil && rec.succeeded == nil && rec.deleted == nil {
		return
	}
	s.jobs[id] = rec
}

// FailNextCommit makes the next transaction commit fail with err without applying anything.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Close makes every later call fail with data.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// IDs returns a copy of a category's index.
func (s *Store) IDs(category model.JobCategory) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category == model.CategoryRecurring {
		return s.recurringIDsLocked()
	}
	return slices.Clone(s.indexes[category])
}

// State returns a job's state and whether its data still exists.
func (s *Store) State(id string) (model.StateName, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.liveLocked(id)
	if !ok {
		return "", false
	}
	return rec.state, true
}

// FetchCalls reports how many pages were requested from a category.
func (s *Store) FetchCalls(category model.JobCategory) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls[category]
}

// Commits reports how many transactions committed successfully.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// FailedJobs implements core.JobPageReader.
func (s *Store) FailedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.FailedJob], error) {
	return page(ctx, s, model.CategoryFailed, offset, limit, func(r *record) *model.FailedJob { return r.failed })
}

// SucceededJobs implements core.JobPageReader.
func (s *Store) SucceededJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.SucceededJob], error) {
	return page(ctx, s, model.CategorySucceeded, offset, limit, func(r *record) *model.SucceededJob { return r.succeeded })
}

// DeletedJobs implements core.JobPageReader.
func (s *Store) DeletedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.DeletedJob], error) {
	return page(ctx, s, model.CategoryDeleted, offset, limit, func(r *record) *model.DeletedJob { return r.deleted })
}

func page[T any](
	ctx context.Context,
	s *Store,
	category model.JobCategory,
	offset, limit int,
	payload func(*record) *T,
) ([]model.JobEntry[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, core.ErrInvalidBatchSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, data.ErrStoreClosed
	}
	s.fetchCalls[category]++

	ids := s.indexes[category]
	if offset < 0 || offset >= len(ids) {
		return nil, nil
	}
	end := min(offset+limit, len(ids))

	out := make([]model.JobEntry[T], 0, end-offset)
	for _, id := range ids[offset:end] {
		entry := model.JobEntry[T]{ID: id}
		if rec, ok := s.liveLocked(id); ok {
			entry.Payload = payload(rec)
		}
		out = append(out, entry)
	}
	return out, nil
}

// RecurringJobs implements core.RecurringJobStore. Schedules are ordered by id.
func (s *Store) RecurringJobs(ctx context.Context) ([]model.RecurringJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, data.ErrStoreClosed
	}
	out := make([]model.RecurringJob, 0, len(s.recurring))
	for _, id := range s.recurringIDsLocked() {
		out = append(out, s.recurring[id])
	}
	return out, nil
}

// RemoveRecurringJobIfExists implements core.RecurringJobStore.
func (s *Store) RemoveRecurringJobIfExists(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return data.ErrStoreClosed
	}
	delete(s.recurring, id)
	return nil
}

// CountJobs implements core.CategoryCounter.
func (s *Store) CountJobs(ctx context.Context, category model.JobCategory) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, data.ErrStoreClosed
	}
	if category == model.CategoryRecurring {
		return int64(len(s.recurring)), nil
	}
	return int64(len(s.indexes[category])), nil
}

// BeginTx implements core.TxBeginner.
func (s *Store) BeginTx(ctx context.Context) (core.StoreTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, data.ErrStoreClosed
	}
	return &tx{store: s}, nil
}

func (s *Store) liveLocked(id string) (*record, bool) {
	rec, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	if !rec.expireAt.IsZero() && !s.clock.Now().Before(rec.expireAt) {
		delete(s.jobs, id)
		return nil, false
	}
	return rec, true
}

func (s *Store) recurringIDsLocked() []string {
	ids := make([]string, 0, len(s.recurring))
	for id := range s.recurring {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type txOp func(s *Store)

// tx buffers operations until Commit.
type tx struct {
	store *Store
	ops   []txOp
	done  bool
}

func (t *tx) MarkDeleted(jobID string) {
	t.ops = append(t.ops, func(s *Store) {
		if rec, ok := s.liveLocked(jobID); ok {
			rec.state = model.StateDeleted
		}
	})
}

func (t *tx) RemoveFromIndex(category model.JobCategory, jobID string) {
	t.ops = append(t.ops, func(s *Store) {
		s.indexes[category] = slices.DeleteFunc(s.indexes[category], func(id string) bool { return id == jobID })
	})
}

func (t *tx) ExpireJob(jobID string, ttl time.Duration) {
	t.ops = append(t.ops, func(s *Store) {
		rec, ok := s.liveLocked(jobID)
		if !ok {
			return
		}
		if ttl <= 0 {
			delete(s.jobs, jobID)
			return
		}
		rec.expireAt = s.clock.Now().Add(ttl)
	})
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return data.ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t.done = true
	if s.closed {
		return data.ErrStoreClosed
	}
	if err := s.commitErr; err != nil {
		s.commitErr = nil
		return err
	}
	for _, op := range t.ops {
		op(s)
	}
	t.ops = nil
	s.commits++
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.ops = nil
	return nil
}
