package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/data/pgxutil"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

// PostgresJobStoreOptions configures a PostgresJobStore.
type PostgresJobStoreOptions struct {
	Clock TimeProvider
	// TxOptions applies to every page transaction; nil uses the server default isolation.
	TxOptions *sql.TxOptions
}

// PostgresJobStore reads and sweeps a job store kept in the store_jobs,
// store_job_index and store_recurring_jobs tables.
type PostgresJobStore struct {
	db     *sql.DB
	clock  TimeProvider
	txOpts *sql.TxOptions
}

var (
	_ core.JobStore        = (*PostgresJobStore)(nil)
	_ core.CategoryCounter = (*PostgresJobStore)(nil)
)

// NewPostgresJobStore creates a PostgresJobStore on an open database handle.
func NewPostgresJobStore(db *sql.DB, opts PostgresJobStoreOptions) *PostgresJobStore {
	return &PostgresJobStore{
		db:     db,
		clock:  timeProviderOrDefault(opts.Clock),
		txOpts: opts.TxOptions,
	}
}

// Jobs whose expiry has passed are treated as gone even before a sweep removes the row.
const pageQuery = `
SELECT i.job_id, j.invocation, j.state_data
FROM store_job_index i
LEFT JOIN store_jobs j
  ON j.id = i.job_id AND (j.expire_at IS NULL OR j.expire_at > $4)
WHERE i.category = $1
ORDER BY i.position
OFFSET $2 LIMIT $3`

// FailedJobs implements core.JobPageReader.
func (p *PostgresJobStore) FailedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.FailedJob], error) {
	return pgPage(ctx, p, model.CategoryFailed, offset, limit, func(inv *model.Invocation, out *model.FailedJob) {
		out.Invocation = inv
	})
}

// SucceededJobs implements core.JobPageReader.
func (p *PostgresJobStore) SucceededJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.SucceededJob], error) {
	return pgPage(ctx, p, model.CategorySucceeded, offset, limit, func(inv *model.Invocation, out *model.SucceededJob) {
		out.Invocation = inv
	})
}

// DeletedJobs implements core.JobPageReader.
func (p *PostgresJobStore) DeletedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.DeletedJob], error) {
	return pgPage(ctx, p, model.CategoryDeleted, offset, limit, func(inv *model.Invocation, out *model.DeletedJob) {
		out.Invocation = inv
	})
}

func pgPage[T any](
	ctx context.Context,
	p *PostgresJobStore,
	category model.JobCategory,
	offset, limit int,
	attach func(*model.Invocation, *T),
) (_ []model.JobEntry[T], err error) {
	if limit < 1 {
		return nil, core.ErrInvalidBatchSize
	}

	rows, err := p.db.QueryContext(ctx, pageQuery, string(category), offset, limit, p.clock.Now())
	if err != nil {
		return nil, classifyStoreError(fmt.Sprintf("query %s page", category), err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s page rows: %w", category, cerr)
		}
	}()

	out := make([]model.JobEntry[T], 0, limit)
	for rows.Next() {
		var (
			id         string
			invocation []byte
			stateData  []byte
		)
		if err := rows.Scan(&id, &invocation, &stateData); err != nil {
			return nil, fmt.Errorf("scan %s page: %w", category, err)
		}
		entry := model.JobEntry[T]{ID: id}
		// state_data is NOT NULL, so NULL here means the job row is gone.
		if stateData != nil {
			entry.Payload = decodePgPayload(stateData, invocation, attach)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError(fmt.Sprintf("iterate %s page", category), err)
	}
	return out, nil
}

// decodePgPayload tolerates malformed JSON: a payload it cannot read is returned
// without the unreadable parts rather than failing the whole page.
func decodePgPayload[T any](stateData, invocation []byte, attach func(*model.Invocation, *T)) *T {
	var payload T
	_ = json.Unmarshal(stateData, &payload)
	var inv *model.Invocation
	if len(invocation) > 0 {
		var v model.Invocation
		if json.Unmarshal(invocation, &v) == nil && v.Type != "" && v.Method != "" {
			inv = &v
		}
	}
	attach(inv, &payload)
	return &payload
}

// RecurringJobs implements core.RecurringJobStore.
func (p *PostgresJobStore) RecurringJobs(ctx context.Context) (_ []model.RecurringJob, err error) {
	const q = `
SELECT id, cron, queue, time_zone, invocation, next_execution, last_execution, created_at
FROM store_recurring_jobs
ORDER BY id`

	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classifyStoreError("query recurring jobs", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close recurring job rows: %w", cerr)
		}
	}()

	var out []model.RecurringJob
	for rows.Next() {
		var (
			rj              model.RecurringJob
			queue, timeZone sql.NullString
			invocation      []byte
			next, last      sql.NullTime
			createdAt       time.Time
		)
		if err := rows.Scan(&rj.ID, &rj.Cron, &queue, &timeZone, &invocation, &next, &last, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recurring job: %w", err)
		}
		rj.Queue = queue.String
		rj.TimeZone = timeZone.String
		rj.NextExecution = nullTimePtr(next)
		rj.LastExecution = nullTimePtr(last)
		rj.CreatedAt = &createdAt
		if len(invocation) > 0 {
			var inv model.Invocation
			if json.Unmarshal(invocation, &inv) == nil {
				rj.Invocation = &inv
			}
		}
		out = append(out, rj)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("iterate recurring jobs", err)
	}
	return out, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// RemoveRecurringJobIfExists implements core.RecurringJobStore.
func (p *PostgresJobStore) RemoveRecurringJobIfExists(ctx context.Context, id string) error {
	if id == "" {
		return ErrJobIDMissing
	}
	if _, err := p.db.ExecContext(ctx, `DELETE FROM store_recurring_jobs WHERE id = $1`, id); err != nil {
		return classifyStoreError("delete recurring job", err)
	}
	return nil
}

// CountJobs implements core.CategoryCounter.
func (p *PostgresJobStore) CountJobs(ctx context.Context, category model.JobCategory) (int64, error) {
	var (
		n   int64
		err error
	)
	switch {
	case category == model.CategoryRecurring:
		err = p.db.QueryRowContext(ctx, `SELECT count(*) FROM store_recurring_jobs`).Scan(&n)
	case category.Paginated():
		err = p.db.QueryRowContext(ctx,
			`SELECT count(*) FROM store_job_index WHERE category = $1`, string(category)).Scan(&n)
	default:
		return 0, fmt.Errorf("unknown category %q", category)
	}
	if err != nil {
		return 0, classifyStoreError(fmt.Sprintf("count %s jobs", category), err)
	}
	return n, nil
}

// BeginTx implements core.TxBeginner. Statements are queued in a pgx.Batch and sent
// inside a single transaction on Commit, so a page costs one round trip.
func (p *PostgresJobStore) BeginTx(ctx context.Context) (core.StoreTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &pgTx{store: p, batch: &pgx.Batch{}}, nil
}

type pgTx struct {
	store *PostgresJobStore
	batch *pgx.Batch
	done  bool
}

func (t *pgTx) MarkDeleted(jobID string) {
	t.batch.Queue(
		`UPDATE store_jobs
		 SET state = $2, state_data = jsonb_build_object('DeletedAt', $3::text)
		 WHERE id = $1`,
		jobID, string(model.StateDeleted), formatStoreTime(t.store.clock.Now()),
	)
}

func (t *pgTx) RemoveFromIndex(category model.JobCategory, jobID string) {
	if category == model.CategoryRecurring {
		t.batch.Queue(`DELETE FROM store_recurring_jobs WHERE id = $1`, jobID)
		return
	}
	t.batch.Queue(`DELETE FROM store_job_index WHERE category = $1 AND job_id = $2`, string(category), jobID)
}

func (t *pgTx) ExpireJob(jobID string, ttl time.Duration) {
	if ttl <= 0 {
		t.batch.Queue(`DELETE FROM store_jobs WHERE id = $1`, jobID)
		return
	}
	t.batch.Queue(`UPDATE store_jobs SET expire_at = $2 WHERE id = $1`, jobID, t.store.clock.Now().Add(ttl))
}

func (t *pgTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.batch.Len() == 0 {
		return nil
	}
	err := pgxutil.WithPgxTx(ctx, t.store.db, pgxutil.TxConfig{
		Opts: t.store.txOpts,
		Fn: func(tx pgx.Tx) error {
			return pgxutil.ExecBatch(ctx, tx, t.batch)
		},
	})
	if err != nil {
		return classifyStoreError("commit page", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.batch = &pgx.Batch{}
	return nil
}
