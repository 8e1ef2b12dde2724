package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperations(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		ops, err := ParseOperations("delete-failed")
		require.NoError(t, err)
		assert.Equal(t, []Operation{OperationDeleteFailed}, ops)
	})

	t.Run("list with spaces, case and duplicates", func(t *testing.T) {
		ops, err := ParseOperations(" Purge-Garbage , delete-succeeded,purge-garbage,, ")
		require.NoError(t, err)
		assert.Equal(t, []Operation{OperationPurgeGarbage, OperationDeleteSucceeded}, ops)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := ParseOperations("delete-failed,vacuum")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"vacuum"`)
		assert.Contains(t, err.Error(), "delete-recurring")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseOperations(" , ")
		require.Error(t, err)
	})
}

func TestOperationValid(t *testing.T) {
	for _, op := range ValidOperations() {
		assert.True(t, op.Valid(), op)
	}
	assert.False(t, Operation("delete").Valid())
}

func TestJobCategory(t *testing.T) {
	var c JobCategory
	require.NoError(t, c.UnmarshalText([]byte(" Failed ")))
	assert.Equal(t, CategoryFailed, c)
	require.Error(t, c.UnmarshalText([]byte("enqueued")))

	assert.True(t, CategoryDeleted.Paginated())
	assert.False(t, CategoryRecurring.Paginated())
	assert.Equal(t, []JobCategory{CategoryFailed, CategorySucceeded, CategoryDeleted, CategoryRecurring}, AllCategories())
}

func TestFailedJobJSON(t *testing.T) {
	raw := `{"Job":{"Type":"App.Mailer","Method":"Send","Arguments":["a"]},"Reason":"Job expired","ExceptionType":"System.TimeoutException"}`

	var fj FailedJob
	require.NoError(t, json.Unmarshal([]byte(raw), &fj))
	require.NotNil(t, fj.Invocation)
	assert.Equal(t, "App.Mailer", fj.Invocation.Type)
	assert.Equal(t, "Job expired", fj.Reason)
	assert.Nil(t, fj.FailedAt)
}

func TestSweepResultAdd(t *testing.T) {
	var r SweepResult
	r.Add(2, 1, 1)
	r.Add(3, 0, 2)
	assert.Equal(t, 5, r.Deleted)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 3, r.Pages)
}
