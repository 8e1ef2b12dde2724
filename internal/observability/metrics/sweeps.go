// Package metrics emits the sweeper's StatsD metrics in a consistent shape.
package metrics

import (
	"time"

	obserrors "github.com/target/mmk-sweeper/internal/observability/errors"
	"github.com/target/mmk-sweeper/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// SweepMetric captures the outcome of one sweep operation.
type SweepMetric struct {
	Operation string
	Store     string
	Deleted   int
	Skipped   int
	Expired   int
	Duration  time.Duration
	Err       error
	// Now is used for the last-success gauge; zero means time.Now.
	Now time.Time
}

// Result derives the result tag for a sweep outcome.
func (m SweepMetric) Result() string {
	switch {
	case m.Err != nil:
		return ResultError
	case m.Deleted == 0:
		return ResultNoop
	default:
		return ResultSuccess
	}
}

// EmitSweep emits the standard per-operation sweep metrics.
func EmitSweep(sink statsd.Sink, in SweepMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result(),
	}
	if in.Store != "" {
		tags["store"] = in.Store
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("sweeper.operation", 1, tags)

	if in.Duration > 0 {
		sink.Timing("sweeper.operation_duration", in.Duration, CloneTags(tags))
	}
	if in.Deleted > 0 {
		sink.Count("sweeper.jobs_deleted", int64(in.Deleted), CloneTags(tags))
	}
	if in.Skipped > 0 {
		sink.Count("sweeper.jobs_skipped", int64(in.Skipped), CloneTags(tags))
	}
	if in.Expired > 0 {
		sink.Count("sweeper.jobs_expired", int64(in.Expired), CloneTags(tags))
	}

	if in.Err == nil {
		now := in.Now
		if now.IsZero() {
			now = time.Now()
		}
		sink.Gauge("sweeper.last_success_epoch", float64(now.Unix()), map[string]string{"operation": in.Operation})
	}
}

// EmitCategorySize records the current size of a job index.
func EmitCategorySize(sink statsd.Sink, category string, size int64) {
	if sink == nil {
		return
	}
	sink.Gauge("sweeper.category_size", float64(size), map[string]string{"category": category})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
