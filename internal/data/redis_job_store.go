package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

// DefaultKeyPrefix is the key prefix used by the job store when none is configured.
const DefaultKeyPrefix = "hangfire:"

// RedisJobStoreOptions configures a RedisJobStore.
type RedisJobStoreOptions struct {
	Prefix string
	Clock  TimeProvider
}

// RedisJobStore reads and sweeps a Redis-backed job store.
//
// Layout, relative to the prefix:
//
//	failed                 sorted set of job ids
//	succeeded, deleted     lists of job ids
//	job:{id}               hash with Type, Method, Arguments, State, CreatedAt
//	job:{id}:state         hash with the current state's data
//	job:{id}:history       list of serialized state transitions
//	recurring-jobs         sorted set of recurring job ids
//	recurring-job:{id}     hash with Cron, Queue, TimeZone, Job, NextExecution, LastExecution, CreatedAt
type RedisJobStore struct {
	client redis.UniversalClient
	prefix string
	clock  TimeProvider
}

var (
	_ core.JobStore        = (*RedisJobStore)(nil)
	_ core.CategoryCounter = (*RedisJobStore)(nil)
)

// NewRedisJobStore creates a RedisJobStore with the given Redis client.
func NewRedisJobStore(client redis.UniversalClient, opts RedisJobStoreOptions) *RedisJobStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisJobStore{
		client: client,
		prefix: prefix,
		clock:  timeProviderOrDefault(opts.Clock),
	}
}

func (r *RedisJobStore) key(parts ...string) string {
	return r.prefix + strings.Join(parts, ":")
}

func (r *RedisJobStore) indexKey(category model.JobCategory) string {
	return r.key(string(category))
}

func (r *RedisJobStore) jobKeys(id string) []string {
	return []string{r.key("job", id), r.key("job", id, "state"), r.key("job", id, "history")}
}

// FailedJobs implements core.JobPageReader.
func (r *RedisJobStore) FailedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.FailedJob], error) {
	return redisPage(ctx, r, model.CategoryFailed, offset, limit, decodeFailed)
}

// SucceededJobs implements core.JobPageReader.
func (r *RedisJobStore) SucceededJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.SucceededJob], error) {
	return redisPage(ctx, r, model.CategorySucceeded, offset, limit, decodeSucceeded)
}

// DeletedJobs implements core.JobPageReader.
func (r *RedisJobStore) DeletedJobs(ctx context.Context, offset, limit int) ([]model.JobEntry[model.DeletedJob], error) {
	return redisPage(ctx, r, model.CategoryDeleted, offset, limit, decodeDeleted)
}

type redisDecoder[T any] func(job, state map[string]string) *T

func redisPage[T any](
	ctx context.Context,
	r *RedisJobStore,
	category model.JobCategory,
	offset, limit int,
	decode redisDecoder[T],
) ([]model.JobEntry[T], error) {
	if limit < 1 {
		return nil, core.ErrInvalidBatchSize
	}

	ids, err := r.pageIDs(ctx, category, offset, limit)
	if err != nil {
		return nil, classifyStoreError(fmt.Sprintf("redis range %s", category), err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	jobCmds := make([]*redis.MapStringStringCmd, len(ids))
	stateCmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		jobCmds[i] = pipe.HGetAll(ctx, r.key("job", id))
		stateCmds[i] = pipe.HGetAll(ctx, r.key("job", id, "state"))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, classifyStoreError(fmt.Sprintf("redis read %s payloads", category), err)
	}

	out := make([]model.JobEntry[T], len(ids))
	for i, id := range ids {
		out[i].ID = id
		job := jobCmds[i].Val()
		if len(job) == 0 {
			continue
		}
		out[i].Payload = decode(job, stateCmds[i].Val())
	}
	return out, nil
}

func (r *RedisJobStore) pageIDs(ctx context.Context, category model.JobCategory, offset, limit int) ([]string, error) {
	start, stop := int64(offset), int64(offset+limit-1)
	switch category {
	case model.CategoryFailed:
		return r.client.ZRange(ctx, r.indexKey(category), start, stop).Result()
	case model.CategorySucceeded, model.CategoryDeleted:
		return r.client.LRange(ctx, r.indexKey(category), start, stop).Result()
	default:
		return nil, fmt.Errorf("category %q is not paginated", category)
	}
}

func decodeInvocation(job map[string]string) *model.Invocation {
	if job["Type"] == "" || job["Method"] == "" {
		return nil
	}
	inv := &model.Invocation{Type: job["Type"], Method: job["Method"]}
	if args := job["Arguments"]; args != "" && json.Valid([]byte(args)) {
		inv.Arguments = json.RawMessage(args)
	}
	return inv
}

func decodeFailed(job, state map[string]string) *model.FailedJob {
	return &model.FailedJob{
		Invocation:       decodeInvocation(job),
		Reason:           state["Reason"],
		ExceptionType:    state["ExceptionType"],
		ExceptionMessage: state["ExceptionMessage"],
		ExceptionDetails: state["ExceptionDetails"],
		FailedAt:         parseStoreTime(state["FailedAt"]),
	}
}

func decodeSucceeded(job, state map[string]string) *model.SucceededJob {
	out := &model.SucceededJob{
		Invocation:  decodeInvocation(job),
		Result:      state["Result"],
		SucceededAt: parseStoreTime(state["SucceededAt"]),
	}
	if ms, err := strconv.ParseInt(state["PerformanceDuration"], 10, 64); err == nil {
		d := time.Duration(ms) * time.Millisecond
		out.TotalDuration = &d
	}
	return out
}

func decodeDeleted(job, state map[string]string) *model.DeletedJob {
	return &model.DeletedJob{
		Invocation: decodeInvocation(job),
		DeletedAt:  parseStoreTime(state["DeletedAt"]),
	}
}

// parseStoreTime accepts RFC 3339 timestamps and unix milliseconds.
func parseStoreTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}

func formatStoreTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// RecurringJobs implements core.RecurringJobStore.
func (r *RedisJobStore) RecurringJobs(ctx context.Context) ([]model.RecurringJob, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(model.CategoryRecurring), 0, -1).Result()
	if err != nil {
		return nil, classifyStoreError("redis list recurring jobs", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.key("recurring-job", id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, classifyStoreError("redis read recurring jobs", err)
	}

	out := make([]model.RecurringJob, 0, len(ids))
	for i, id := range ids {
		h := cmds[i].Val()
		rj := model.RecurringJob{
			ID:            id,
			Cron:          h["Cron"],
			Queue:         h["Queue"],
			TimeZone:      h["TimeZoneId"],
			NextExecution: parseStoreTime(h["NextExecution"]),
			LastExecution: parseStoreTime(h["LastExecution"]),
			CreatedAt:     parseStoreTime(h["CreatedAt"]),
		}
		if raw := h["Job"]; raw != "" {
			var inv model.Invocation
			if json.Unmarshal([]byte(raw), &inv) == nil {
				rj.Invocation = &inv
			}
		}
		out = append(out, rj)
	}
	return out, nil
}

// RemoveRecurringJobIfExists implements core.RecurringJobStore.
func (r *RedisJobStore) RemoveRecurringJobIfExists(ctx context.Context, id string) error {
	if id == "" {
		return ErrJobIDMissing
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key("recurring-job", id))
		pipe.ZRem(ctx, r.indexKey(model.CategoryRecurring), id)
		return nil
	})
	return classifyStoreError("redis remove recurring job", err)
}

// CountJobs implements core.CategoryCounter.
func (r *RedisJobStore) CountJobs(ctx context.Context, category model.JobCategory) (int64, error) {
	var (
		n   int64
		err error
	)
	switch category {
	case model.CategoryFailed, model.CategoryRecurring:
		n, err = r.client.ZCard(ctx, r.indexKey(category)).Result()
	case model.CategorySucceeded, model.CategoryDeleted:
		n, err = r.client.LLen(ctx, r.indexKey(category)).Result()
	default:
		return 0, fmt.Errorf("unknown category %q", category)
	}
	if err != nil {
		return 0, classifyStoreError(fmt.Sprintf("redis count %s", category), err)
	}
	return n, nil
}

// BeginTx implements core.TxBeginner. Staged commands are sent as one MULTI/EXEC block.
func (r *RedisJobStore) BeginTx(ctx context.Context) (core.StoreTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &redisTx{store: r, ctx: ctx, pipe: r.client.TxPipeline()}, nil
}

type redisTx struct {
	store *RedisJobStore
	ctx   context.Context
	pipe  redis.Pipeliner
	done  bool
}

func (t *redisTx) MarkDeleted(jobID string) {
	r := t.store
	stateKey := r.key("job", jobID, "state")
	now := formatStoreTime(r.clock.Now())
	t.pipe.HSet(t.ctx, r.key("job", jobID), "State", string(model.StateDeleted))
	t.pipe.Del(t.ctx, stateKey)
	t.pipe.HSet(t.ctx, stateKey, "State", string(model.StateDeleted), "DeletedAt", now)
	t.pipe.LPush(t.ctx, r.key("job", jobID, "history"), fmt.Sprintf(`{"State":%q,"CreatedAt":%q}`, model.StateDeleted, now))
}

func (t *redisTx) RemoveFromIndex(category model.JobCategory, jobID string) {
	key := t.store.indexKey(category)
	switch category {
	case model.CategoryFailed, model.CategoryRecurring:
		t.pipe.ZRem(t.ctx, key, jobID)
	default:
		t.pipe.LRem(t.ctx, key, 0, jobID)
	}
}

func (t *redisTx) ExpireJob(jobID string, ttl time.Duration) {
	keys := t.store.jobKeys(jobID)
	if ttl <= 0 {
		t.pipe.Del(t.ctx, keys...)
		return
	}
	for _, k := range keys {
		t.pipe.Expire(t.ctx, k, ttl)
	}
}

func (t *redisTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.pipe.Len() == 0 {
		return nil
	}
	if _, err := t.pipe.Exec(ctx); err != nil {
		return classifyStoreError("redis exec", err)
	}
	return nil
}

func (t *redisTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.pipe.Discard()
	return nil
}
