package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/domain/model"
	"github.com/target/mmk-sweeper/internal/testutil"
)

// setupRedisJobStore returns a store on an isolated test DB, or skips.
func setupRedisJobStore(t *testing.T) (*RedisJobStore, *redis.Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })
	clock := NewFixedTimeProvider(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	return NewRedisJobStore(client, RedisJobStoreOptions{Prefix: "test:", Clock: clock}), client
}

func seedRedisFailed(t *testing.T, client *redis.Client, id string, score float64, state map[string]any) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.ZAdd(ctx, "test:failed", redis.Z{Score: score, Member: id}).Err())
	require.NoError(t, client.HSet(ctx, "test:job:"+id, "Type", "App.Jobs", "Method", "Run", "State", "Failed").Err())
	if len(state) > 0 {
		require.NoError(t, client.HSet(ctx, "test:job:"+id+":state", state).Err())
	}
	require.NoError(t, client.LPush(ctx, "test:job:"+id+":history", `{"State":"Failed"}`).Err())
}

func TestRedisJobStore_FailedJobs(t *testing.T) {
	store, client := setupRedisJobStore(t)
	ctx := context.Background()

	seedRedisFailed(t, client, "a", 1, map[string]any{"Reason": "Job expired", "ExceptionType": "System.TimeoutException"})
	seedRedisFailed(t, client, "b", 2, nil)
	require.NoError(t, client.ZAdd(ctx, "test:failed", redis.Z{Score: 3, Member: "ghost"}).Err())

	page, err := store.FailedJobs(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].ID)
	require.NotNil(t, page[0].Payload)
	assert.Equal(t, "Job expired", page[0].Payload.Reason)
	require.NotNil(t, page[0].Payload.Invocation)
	assert.Equal(t, "Run", page[0].Payload.Invocation.Method)

	page, err = store.FailedJobs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "ghost", page[0].ID)
	assert.Nil(t, page[0].Payload, "index entry without job hash has no payload")

	n, err := store.CountJobs(ctx, model.CategoryFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRedisJobStore_Transaction(t *testing.T) {
	store, client := setupRedisJobStore(t)
	ctx := context.Background()

	for i := range 3 {
		id := fmt.Sprintf("s%d", i)
		require.NoError(t, client.RPush(ctx, "test:succeeded", id).Err())
		require.NoError(t, client.HSet(ctx, "test:job:"+id, "Type", "T", "Method", "M", "State", "Succeeded").Err())
	}

	t.Run("rollback sends nothing", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		tx.RemoveFromIndex(model.CategorySucceeded, "s0")
		require.NoError(t, tx.Rollback())
		assert.Equal(t, int64(3), client.LLen(ctx, "test:succeeded").Val())
	})

	t.Run("commit deletes atomically", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		tx.MarkDeleted("s0")
		tx.RemoveFromIndex(model.CategorySucceeded, "s0")
		tx.ExpireJob("s0", 0)
		require.NoError(t, tx.Commit(ctx))
		require.NoError(t, tx.Rollback())
		require.ErrorIs(t, tx.Commit(ctx), ErrTxDone)

		assert.Equal(t, []string{"s1", "s2"}, client.LRange(ctx, "test:succeeded", 0, -1).Val())
		assert.Zero(t, client.Exists(ctx, "test:job:s0", "test:job:s0:state", "test:job:s0:history").Val())
	})

	t.Run("positive ttl expires keys", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		tx.MarkDeleted("s1")
		tx.ExpireJob("s1", time.Hour)
		require.NoError(t, tx.Commit(ctx))

		ttl := client.TTL(ctx, "test:job:s1").Val()
		assert.True(t, ttl > 0 && ttl <= time.Hour)
		assert.Equal(t, "Deleted", client.HGet(ctx, "test:job:s1:state", "State").Val())
	})
}

func TestRedisJobStore_RecurringJobs(t *testing.T) {
	store, client := setupRedisJobStore(t)
	ctx := context.Background()

	require.NoError(t, client.ZAdd(ctx, "test:recurring-jobs", redis.Z{Score: 0, Member: "nightly"}).Err())
	require.NoError(t, client.HSet(ctx, "test:recurring-job:nightly",
		"Cron", "0 0 * * *",
		"Queue", "default",
		"Job", `{"Type":"App.Reports","Method":"Build"}`,
	).Err())

	jobs, err := store.RecurringJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "0 0 * * *", jobs[0].Cron)
	require.NotNil(t, jobs[0].Invocation)
	assert.Equal(t, "Build", jobs[0].Invocation.Method)

	require.NoError(t, store.RemoveRecurringJobIfExists(ctx, "nightly"))
	require.NoError(t, store.RemoveRecurringJobIfExists(ctx, "nightly"))
	require.ErrorIs(t, store.RemoveRecurringJobIfExists(ctx, ""), ErrJobIDMissing)

	jobs, err = store.RecurringJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRedisJobStore_InvalidLimit(t *testing.T) {
	store := NewRedisJobStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), RedisJobStoreOptions{})
	_, err := store.SucceededJobs(context.Background(), 0, 0)
	require.ErrorIs(t, err, core.ErrInvalidBatchSize)
	assert.Equal(t, "hangfire:job:x", store.key("job", "x"))
}

func TestParseStoreTime(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	got := parseStoreTime("2025-01-02T03:04:05Z")
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got))

	got = parseStoreTime(fmt.Sprint(want.UnixMilli()))
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got))

	assert.Nil(t, parseStoreTime(""))
	assert.Nil(t, parseStoreTime("yesterday"))
}

func TestDecodeSucceeded(t *testing.T) {
	out := decodeSucceeded(
		map[string]string{"Type": "T", "Method": "M", "Arguments": `["x"]`},
		map[string]string{"Result": "42", "PerformanceDuration": "1500"},
	)
	require.NotNil(t, out.Invocation)
	assert.JSONEq(t, `["x"]`, string(out.Invocation.Arguments))
	assert.Equal(t, "42", out.Result)
	require.NotNil(t, out.TotalDuration)
	assert.Equal(t, 1500*time.Millisecond, *out.TotalDuration)

	assert.Nil(t, decodeInvocation(map[string]string{"Type": "T"}), "method is required")
}
