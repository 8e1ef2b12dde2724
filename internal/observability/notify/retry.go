package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RetryBackoff is the base delay between delivery attempts; attempt n waits n*RetryBackoff.
var RetryBackoff = 200 * time.Millisecond

// WithRetry calls fn up to retryLimit+1 times with linear backoff, stopping early when
// ctx is cancelled.
func WithRetry(ctx context.Context, retryLimit int, fn func(context.Context) error) error {
	attempts := max(retryLimit, 0) + 1
	var lastErr error
	for attempt := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * RetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// DrainResponse consumes and closes an HTTP response body. Non-2xx responses are
// turned into an error carrying the sink name, status and body text.
func DrainResponse(sink string, resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if readErr != nil {
			return errors.Join(fmt.Errorf("read %s error response: %w", sink, readErr), wrapClose(closeErr))
		}
		if closeErr != nil {
			return wrapClose(closeErr)
		}
		return fmt.Errorf("%s %s: %s", sink, resp.Status, strings.TrimSpace(string(body)))
	}

	_, copyErr := io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()
	if copyErr != nil {
		return errors.Join(fmt.Errorf("drain %s response body: %w", sink, copyErr), wrapClose(closeErr))
	}
	return wrapClose(closeErr)
}

// Fallback returns value unless it is blank.
func Fallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func wrapClose(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("close response body: %w", err)
}
