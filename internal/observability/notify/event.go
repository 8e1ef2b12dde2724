// Package notify defines the alert payload emitted when a sweep operation fails.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// SweepFailurePayload describes a failed sweep operation.
type SweepFailurePayload struct {
	Operation  string
	RunID      string
	Store      string
	Error      string
	ErrorClass string
	Severity   string
	Deleted    int
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming sweep failure notifications.
type Sink interface {
	SendSweepFailure(ctx context.Context, payload SweepFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, payload SweepFailurePayload) error

// SendSweepFailure implements the Sink interface.
func (f SinkFunc) SendSweepFailure(ctx context.Context, payload SweepFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
