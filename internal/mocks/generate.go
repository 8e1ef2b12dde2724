// Package mocks provides mock implementations of the job store port.
//
// The mocks are generated with go.uber.org/mock (gomock). To regenerate them after
// interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockJobStore(ctrl)
//	store.EXPECT().FailedJobs(gomock.Any(), 0, 250).Return(nil, nil)
package mocks

// Generate mocks for the JobStore and StoreTx interfaces from internal/core.
// MockJobStore covers FailedJobs, SucceededJobs, DeletedJobs, BeginTx, RecurringJobs and
// RemoveRecurringJobIfExists; MockStoreTx covers MarkDeleted, RemoveFromIndex, ExpireJob,
// Commit and Rollback.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_store_mock.go github.com/target/mmk-sweeper/internal/core JobStore,StoreTx
