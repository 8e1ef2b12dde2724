package data

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/target/mmk-sweeper/internal/core"
	obserrors "github.com/target/mmk-sweeper/internal/observability/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyStoreError(t *testing.T) {
	assert.NoError(t, classifyStoreError("op", nil))

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, true},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, true},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
		{"redis tx failed", redis.TxFailedErr, true},
		{"net timeout", timeoutErr{}, true},
		{"context canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStoreError("read page", tt.err)
			assert.ErrorIs(t, got, tt.err)
			assert.Equal(t, tt.transient, errors.Is(got, core.ErrTransient))
			assert.Contains(t, got.Error(), "read page")
		})
	}
}

func TestClassifyStoreError_MetricClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"redis tx failed", redis.TxFailedErr, "store_transient"},
		{"net timeout", timeoutErr{}, "store_transient"},
		{"transient postgres keeps its code", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, "pg_40001"},
		{"context canceled", context.Canceled, "context_canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Wrapped again the way the deletion engine reports commit failures.
			err := fmt.Errorf("commit failed page: %w", classifyStoreError("redis exec", tt.err))
			assert.Equal(t, tt.want, obserrors.Classify(err))
		})
	}
}
