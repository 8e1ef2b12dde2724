package sweeper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-sweeper/config"
	"github.com/target/mmk-sweeper/internal/data"
	"github.com/target/mmk-sweeper/internal/data/memstore"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func invocation() *model.Invocation { return &model.Invocation{Type: "App.Jobs", Method: "Run"} }

func TestNewRunner_RequiresStore(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.ErrorContains(t, err, "job store is required")
}

func TestRunner_RunOnceAppliesConfiguredRetention(t *testing.T) {
	store := memstore.New(data.NewFixedTimeProvider(now))
	old := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Hour)
	store.AddFailed("old", &model.FailedJob{Invocation: invocation(), FailedAt: &old})
	store.AddFailed("recent", &model.FailedJob{Invocation: invocation(), FailedAt: &recent})
	store.AddFailed("ghost", nil)

	r, err := NewRunner(RunnerOptions{
		Store: store,
		Config: config.SweeperConfig{
			BatchSize:    1,
			FailedMaxAge: 24 * time.Hour,
		},
		StoreName: "memory",
		Logger:    discardLogger(),
		Clock:     func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Service().Policy().BatchSize)

	res, err := r.RunOnce(context.Background(), model.OperationDeleteFailed)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"recent"}, store.IDs(model.CategoryFailed))
}

func TestRunner_RunOnceTimeout(t *testing.T) {
	store := memstore.New(nil)
	store.AddSucceeded("s1", nil)

	r, err := NewRunner(RunnerOptions{
		Store:  store,
		Config: config.SweeperConfig{RunTimeout: time.Nanosecond},
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = r.RunOnce(context.Background(), model.OperationDeleteSucceeded)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"s1"}, store.IDs(model.CategorySucceeded))
}

func TestSchedulesFromConfig(t *testing.T) {
	cfg := config.SweeperConfig{
		Operations:              "delete-succeeded,purge-garbage",
		DeleteSucceededSchedule: "0 * * * *",
		PurgeGarbageSchedule:    "@daily",
	}
	got, err := SchedulesFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []Schedule{
		{Operation: model.OperationDeleteSucceeded, Spec: "0 * * * *"},
		{Operation: model.OperationPurgeGarbage, Spec: "@daily"},
	}, got)

	cfg.PurgeGarbageSchedule = ""
	_, err = SchedulesFromConfig(cfg)
	require.ErrorContains(t, err, "purge-garbage")

	cfg.Operations = "nope"
	_, err = SchedulesFromConfig(cfg)
	require.Error(t, err)
}
