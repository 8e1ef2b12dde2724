package data

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-sweeper/internal/core"
)

// Shared sentinel errors for job store backends.
var (
	ErrStoreClosed  = errors.New("job store is closed")
	ErrTxDone       = errors.New("job store transaction already committed or rolled back")
	ErrJobIDMissing = errors.New("job id is required")
)

// transientPgCodes are PostgreSQL errors a later attempt is expected to survive.
var transientPgCodes = map[string]bool{
	pgerrcode.SerializationFailure: true,
	pgerrcode.DeadlockDetected:     true,
	pgerrcode.LockNotAvailable:     true,
	pgerrcode.QueryCanceled:        true,
	pgerrcode.TooManyConnections:   true,
	pgerrcode.AdminShutdown:        true,
	pgerrcode.CannotConnectNow:     true,
	pgerrcode.ConnectionFailure:    true,
	pgerrcode.ConnectionException:  true,
}

// classifyStoreError wraps err with core.ErrTransient when it is a failure the caller
// may retry later. Context errors are returned unchanged.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isTransient(err) {
		return &transientError{op: op, err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// transientError matches core.ErrTransient and the underlying cause, and tags metrics
// with a single class regardless of which backend produced it.
type transientError struct {
	op  string
	err error
}

func (e *transientError) Error() string {
	return e.op + ": " + core.ErrTransient.Error() + ": " + e.err.Error()
}

func (e *transientError) Unwrap() []error { return []error{core.ErrTransient, e.err} }

// ErrorClass implements observability/errors.Classifier.
func (e *transientError) ErrorClass() string { return "store_transient" }

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientPgCodes[pgErr.Code]
	}
	if errors.Is(err, redis.TxFailedErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return pgconn.SafeToRetry(err)
}
