package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkFuncNil(t *testing.T) {
	var f SinkFunc
	assert.NoError(t, f.SendSweepFailure(context.Background(), SweepFailurePayload{}))
}

func TestWithRetry(t *testing.T) {
	prev := RetryBackoff
	RetryBackoff = time.Millisecond
	t.Cleanup(func() { RetryBackoff = prev })

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 2, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("nope")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 1, func(context.Context) error {
			calls++
			return errors.New("attempt failed")
		})
		require.EqualError(t, err, "attempt failed")
		assert.Equal(t, 2, calls)
	})

	t.Run("negative limit tries once", func(t *testing.T) {
		calls := 0
		_ = WithRetry(context.Background(), -1, func(context.Context) error {
			calls++
			return errors.New("x")
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := WithRetry(ctx, 5, func(context.Context) error {
			calls++
			cancel()
			return errors.New("x")
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestDrainResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader("ok"))}
		assert.NoError(t, DrainResponse("slack", resp))
	})

	t.Run("error status", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: 400,
			Status:     "400 Bad Request",
			Body:       io.NopCloser(strings.NewReader(" invalid_payload \n")),
		}
		err := DrainResponse("slack webhook", resp)
		require.EqualError(t, err, "slack webhook 400 Bad Request: invalid_payload")
	})
}
