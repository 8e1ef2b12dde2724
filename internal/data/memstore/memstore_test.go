package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/data"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

func TestStorePaging(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	s.AddFailed("a", &model.FailedJob{Reason: "ra"})
	s.AddFailed("b", nil)
	s.AddFailed("c", &model.FailedJob{Reason: "rc"})

	page, err := s.FailedJobs(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].ID)
	assert.Equal(t, "ra", page[0].Payload.Reason)
	assert.Equal(t, "b", page[1].ID)
	assert.Nil(t, page[1].Payload)

	page, err = s.FailedJobs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].ID)

	page, err = s.FailedJobs(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = s.FailedJobs(ctx, 0, 0)
	require.ErrorIs(t, err, core.ErrInvalidBatchSize)
	assert.Equal(t, 3, s.FetchCalls(model.CategoryFailed))
}

func TestStoreTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit applies staged operations", func(t *testing.T) {
		s := New(nil)
		s.AddSucceeded("a", &model.SucceededJob{Result: "ok"})
		s.AddSucceeded("b", &model.SucceededJob{Result: "ok"})

		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		tx.MarkDeleted("a")
		tx.RemoveFromIndex(model.CategorySucceeded, "a")
		tx.ExpireJob("a", 0)

		assert.Equal(t, []string{"a", "b"}, s.IDs(model.CategorySucceeded), "nothing visible before commit")

		require.NoError(t, tx.Commit(ctx))
		require.NoError(t, tx.Rollback(), "rollback after commit is a no-op")
		require.ErrorIs(t, tx.Commit(ctx), data.ErrTxDone)

		assert.Equal(t, []string{"b"}, s.IDs(model.CategorySucceeded))
		_, ok := s.State("a")
		assert.False(t, ok)
		assert.Equal(t, 1, s.Commits())
	})

	t.Run("rollback discards", func(t *testing.T) {
		s := New(nil)
		s.AddDeleted("a", &model.DeletedJob{})
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		tx.RemoveFromIndex(model.CategoryDeleted, "a")
		require.NoError(t, tx.Rollback())
		assert.Equal(t, []string{"a"}, s.IDs(model.CategoryDeleted))
	})

	t.Run("failed commit applies nothing", func(t *testing.T) {
		s := New(nil)
		s.AddFailed("a", &model.FailedJob{})
		boom := errors.New("boom")
		s.FailNextCommit(boom)

		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		tx.RemoveFromIndex(model.CategoryFailed, "a")
		require.ErrorIs(t, tx.Commit(ctx), boom)
		assert.Equal(t, []string{"a"}, s.IDs(model.CategoryFailed))
		assert.Equal(t, 0, s.Commits())
	})

	t.Run("mark deleted keeps data", func(t *testing.T) {
		s := New(nil)
		s.AddFailed("a", &model.FailedJob{})
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		tx.MarkDeleted("a")
		require.NoError(t, tx.Commit(ctx))
		state, ok := s.State("a")
		require.True(t, ok)
		assert.Equal(t, model.StateDeleted, state)
	})

	t.Run("positive ttl expires later", func(t *testing.T) {
		clock := data.NewFixedTimeProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		s := New(clock)
		s.AddFailed("a", &model.FailedJob{})
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		tx.ExpireJob("a", time.Hour)
		require.NoError(t, tx.Commit(ctx))

		_, ok := s.State("a")
		assert.True(t, ok)
		clock.AddTime(time.Hour)
		_, ok = s.State("a")
		assert.False(t, ok)
	})
}

func TestStoreRecurring(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	s.AddRecurring(model.RecurringJob{ID: "nightly", Cron: "0 0 * * *"})
	s.AddRecurring(model.RecurringJob{ID: "hourly", Cron: "0 * * * *"})

	jobs, err := s.RecurringJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "hourly", jobs[0].ID)

	require.NoError(t, s.RemoveRecurringJobIfExists(ctx, "hourly"))
	require.NoError(t, s.RemoveRecurringJobIfExists(ctx, "hourly"))
	n, err := s.CountJobs(ctx, model.CategoryRecurring)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Close())

	_, err := s.FailedJobs(ctx, 0, 10)
	require.ErrorIs(t, err, data.ErrStoreClosed)
	_, err = s.BeginTx(ctx)
	require.ErrorIs(t, err, data.ErrStoreClosed)
	_, err = s.RecurringJobs(ctx)
	require.ErrorIs(t, err, data.ErrStoreClosed)
	_, err = s.CountJobs(ctx, model.CategoryFailed)
	require.ErrorIs(t, err, data.ErrStoreClosed)
}
