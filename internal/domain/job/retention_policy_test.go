package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/target/mmk-sweeper/internal/domain/model"
)

func TestDefaultRetentionPolicy(t *testing.T) {
	p := DefaultRetentionPolicy()
	assert.Equal(t, 250, p.BatchSize)
	assert.True(t, p.NotifyOnUnhandledFailedJobs)
	assert.Nil(t, p.ShouldDeleteFailedJob)
	assert.Nil(t, p.ShouldDeleteSucceededJob)
}

func TestRetentionPolicy_Normalize(t *testing.T) {
	t.Run("zero batch size uses default", func(t *testing.T) {
		p := RetentionPolicy{}.Normalize()
		assert.Equal(t, DefaultBatchSize, p.BatchSize)
	})

	t.Run("negative batch size uses default", func(t *testing.T) {
		p := RetentionPolicy{BatchSize: -3}.Normalize()
		assert.Equal(t, DefaultBatchSize, p.BatchSize)
	})

	t.Run("explicit batch size kept", func(t *testing.T) {
		p := RetentionPolicy{BatchSize: 2}.Normalize()
		assert.Equal(t, 2, p.BatchSize)
	})
}

func TestRetentionPolicy_DeleteFailed(t *testing.T) {
	inv := &model.Invocation{Type: "Jobs", Method: "Run"}

	t.Run("absent payload is deleted", func(t *testing.T) {
		assert.True(t, DefaultRetentionPolicy().DeleteFailed(nil))
	})

	t.Run("missing invocation is deleted", func(t *testing.T) {
		assert.True(t, DefaultRetentionPolicy().DeleteFailed(&model.FailedJob{Reason: "boom"}))
	})

	t.Run("no predicate keeps", func(t *testing.T) {
		assert.False(t, DefaultRetentionPolicy().DeleteFailed(&model.FailedJob{Invocation: inv}))
	})

	t.Run("predicate decides", func(t *testing.T) {
		p := DefaultRetentionPolicy()
		p.ShouldDeleteFailedJob = func(j *model.FailedJob) bool { return j.ExceptionType == "Timeout" }
		assert.True(t, p.DeleteFailed(&model.FailedJob{Invocation: inv, ExceptionType: "Timeout"}))
		assert.False(t, p.DeleteFailed(&model.FailedJob{Invocation: inv, ExceptionType: "Other"}))
	})
}

func TestRetentionPolicy_DeleteSucceeded(t *testing.T) {
	t.Run("absent payload is deleted", func(t *testing.T) {
		assert.True(t, DefaultRetentionPolicy().DeleteSucceeded(nil))
	})

	t.Run("no predicate keeps", func(t *testing.T) {
		assert.False(t, DefaultRetentionPolicy().DeleteSucceeded(&model.SucceededJob{}))
	})
}

func TestNewRetentionPolicy(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	old := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Hour)
	inv := &model.Invocation{Type: "Jobs", Method: "Run"}

	t.Run("zero ages leave predicates unset", func(t *testing.T) {
		p := NewRetentionPolicy(RetentionConfig{NotifyOnUnhandledFailedJobs: true}, clock)
		assert.Nil(t, p.ShouldDeleteFailedJob)
		assert.Nil(t, p.ShouldDeleteSucceededJob)
		assert.Equal(t, DefaultBatchSize, p.BatchSize)
		assert.True(t, p.NotifyOnUnhandledFailedJobs)
	})

	t.Run("failed max age", func(t *testing.T) {
		p := NewRetentionPolicy(RetentionConfig{BatchSize: 10, FailedMaxAge: 24 * time.Hour}, clock)
		assert.Equal(t, 10, p.BatchSize)
		assert.True(t, p.DeleteFailed(&model.FailedJob{Invocation: inv, FailedAt: &old}))
		assert.False(t, p.DeleteFailed(&model.FailedJob{Invocation: inv, FailedAt: &recent}))
		assert.False(t, p.DeleteFailed(&model.FailedJob{Invocation: inv}), "missing timestamp keeps")
	})

	t.Run("succeeded max age", func(t *testing.T) {
		p := NewRetentionPolicy(RetentionConfig{SucceededMaxAge: 24 * time.Hour}, clock)
		assert.True(t, p.DeleteSucceeded(&model.SucceededJob{SucceededAt: &old}))
		assert.False(t, p.DeleteSucceeded(&model.SucceededJob{SucceededAt: &recent}))
	})

	t.Run("nil clock uses wall time", func(t *testing.T) {
		p := NewRetentionPolicy(RetentionConfig{SucceededMaxAge: time.Minute}, nil)
		ancient := time.Now().Add(-time.Hour)
		assert.True(t, p.DeleteSucceeded(&model.SucceededJob{SucceededAt: &ancient}))
	})
}
