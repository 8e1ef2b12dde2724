// Package model defines the job-store records the sweeper reads and the results it reports.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobCategory identifies a backing collection (index set) in the job store.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobCategory string

// StateName is the name of a job state as persisted by the job store.
type StateName string

const (
	// CategoryFailed holds jobs whose last state is Failed.
	CategoryFailed JobCategory = "failed"
	// CategorySucceeded holds jobs whose last state is Succeeded.
	CategorySucceeded JobCategory = "succeeded"
	// CategoryDeleted holds jobs that were already moved to the Deleted state.
	CategoryDeleted JobCategory = "deleted"
	// CategoryRecurring holds recurring job schedules.
	CategoryRecurring JobCategory = "recurring-jobs"

	// StateFailed is the persisted name of the failed state.
	StateFailed StateName = "Failed"
	// StateSucceeded is the persisted name of the succeeded state.
	StateSucceeded StateName = "Succeeded"
	// StateDeleted is the persisted name of the deleted state.
	StateDeleted StateName = "Deleted"
)

// Valid returns true if the JobCategory is known.
func (c JobCategory) Valid() bool {
	return c == CategoryFailed || c == CategorySucceeded || c == CategoryDeleted || c == CategoryRecurring
}

// Paginated reports whether the category is swept page by page.
// Recurring schedules are listed in one pass.
func (c JobCategory) Paginated() bool {
	return c == CategoryFailed || c == CategorySucceeded || c == CategoryDeleted
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (c *JobCategory) UnmarshalText(text []byte) error {
	v := JobCategory(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobCategory: %q", v)
	}
	*c = v
	return nil
}

// PaginatedCategories returns the categories backed by an index that can be paged.
func PaginatedCategories() []JobCategory {
	return []JobCategory{CategoryFailed, CategorySucceeded, CategoryDeleted}
}

// Invocation describes the method a background job runs.
type Invocation struct {
	Type      string          `json:"Type"`
	Method    string          `json:"Method"`
	Arguments json.RawMessage `json:"Arguments,omitempty"`
}

// FailedJob is the failure payload of a job in the failed index.
type FailedJob struct {
	Invocation       *Invocation `json:"Job,omitempty"`
	Reason           string      `json:"Reason,omitempty"`
	ExceptionType    string      `json:"ExceptionType,omitempty"`
	ExceptionMessage string      `json:"ExceptionMessage,omitempty"`
	ExceptionDetails string      `json:"ExceptionDetails,omitempty"`
	FailedAt         *time.Time  `json:"FailedAt,omitempty"`
}

// SucceededJob is the success payload of a job in the succeeded index.
type SucceededJob struct {
	Invocation    *Invocation    `json:"Job,omitempty"`
	Result        string         `json:"Result,omitempty"`
	TotalDuration *time.Duration `json:"TotalDuration,omitempty"`
	SucceededAt   *time.Time     `json:"SucceededAt,omitempty"`
}

// DeletedJob is the payload of a job in the deleted index.
type DeletedJob struct {
	Invocation *Invocation `json:"Job,omitempty"`
	DeletedAt  *time.Time  `json:"DeletedAt,omitempty"`
}

// JobEntry pairs a job identifier with its category payload.
// Payload is nil when the store no longer has data for the job
// (for example when it expired between listing and reading).
type JobEntry[T any] struct {
	ID      string
	Payload *T
}

// RecurringJob is a recurring schedule registered in the job store.
type RecurringJob struct {
	ID            string      `json:"id"`
	Cron          string      `json:"cron"`
	Queue         string      `json:"queue,omitempty"`
	TimeZone      string      `json:"time_zone,omitempty"`
	Invocation    *Invocation `json:"job,omitempty"`
	NextExecution *time.Time  `json:"next_execution,omitempty"`
	LastExecution *time.Time  `json:"last_execution,omitempty"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
}

// AllCategories lists every job index, paginated ones first.
func AllCategories() []JobCategory {
	return append(PaginatedCategories(), CategoryRecurring)
}
