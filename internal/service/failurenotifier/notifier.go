// Package failurenotifier fans sweep failure alerts out to the configured sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/target/mmk-sweeper/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// SkipCanceled drops alerts for sweeps that stopped because their context ended.
	SkipCanceled bool
}

// Service dispatches sweep failure events to all registered sinks.
type Service struct {
	logger       *slog.Logger
	sinks        []SinkRegistration
	skipCanceled bool
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger:       logger.With("component", "failure_notifier"),
		sinks:        sinks,
		skipCanceled: opts.SkipCanceled,
	}
}

// NotifySweepFailure delivers the payload to every sink concurrently and waits for all
// deliveries. Delivery errors are logged, never returned.
func (s *Service) NotifySweepFailure(ctx context.Context, payload notify.SweepFailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if s.skipCanceled && payload.ErrorClass == "context_canceled" {
		s.logger.DebugContext(ctx, "skipping notification for cancelled sweep",
			"operation", payload.Operation,
			"run_id", payload.RunID,
		)
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	// Deliveries outlive a cancelled sweep context so shutdown failures still alert.
	sendCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendSweepFailure(sendCtx, payload); err != nil {
				s.logger.Error("failure notifier delivery error",
					"sink", entry.Name,
					"operation", payload.Operation,
					"run_id", payload.RunID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
