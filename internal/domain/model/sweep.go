package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Operation names a sweep operation.
type Operation string

const (
	// OperationDeleteFailed deletes failed jobs accepted by the retention policy.
	OperationDeleteFailed Operation = "delete-failed"
	// OperationDeleteFailedSilently deletes every failed job without reporting.
	OperationDeleteFailedSilently Operation = "delete-failed-silently"
	// OperationDeleteSucceeded deletes succeeded jobs accepted by the retention policy.
	OperationDeleteSucceeded Operation = "delete-succeeded"
	// OperationPurgeGarbage deletes expired failed jobs and already-deleted jobs.
	OperationPurgeGarbage Operation = "purge-garbage"
	// OperationDeleteRecurring removes every recurring schedule.
	OperationDeleteRecurring Operation = "delete-recurring"
)

// ValidOperations returns all operation names in their canonical order.
func ValidOperations() []Operation {
	return []Operation{
		OperationDeleteFailed,
		OperationDeleteFailedSilently,
		OperationDeleteSucceeded,
		OperationPurgeGarbage,
		OperationDeleteRecurring,
	}
}

// Valid returns true if the Operation is known.
func (o Operation) Valid() bool {
	for _, op := range ValidOperations() {
		if o == op {
			return true
		}
	}
	return false
}

// ParseOperations parses a comma-delimited list of operation names.
// Duplicates collapse; unknown names are rejected.
func ParseOperations(s string) ([]Operation, error) {
	seen := make(map[Operation]bool)
	var ops []Operation
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		op := Operation(strings.ToLower(name))
		if !op.Valid() {
			return nil, fmt.Errorf("invalid operation name: %q (valid options: %s)", name, joinOperations(ValidOperations()))
		}
		if seen[op] {
			continue
		}
		seen[op] = true
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return nil, errors.New("at least one operation must be specified")
	}
	return ops, nil
}

func joinOperations(ops []Operation) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

// SweepResult summarises one sweep operation call.
type SweepResult struct {
	Operation Operation     `json:"operation"`
	RunID     string        `json:"run_id"`
	Deleted   int           `json:"deleted"`
	Skipped   int           `json:"skipped"`
	Expired   int           `json:"expired"`
	Warned    int           `json:"warned"`
	Pages     int           `json:"pages"`
	Duration  time.Duration `json:"duration"`
}

// CategoryCounts maps each category to the number of entries in its index.
type CategoryCounts map[JobCategory]int64

// Add accumulates one engine pass into the result.
func (r *SweepResult) Add(deleted, skipped, pages int) {
	r.Deleted += deleted
	r.Skipped += skipped
	r.Pages += pages
}
