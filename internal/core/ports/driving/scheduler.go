package driving

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// Scheduler runs queued background tasks once their delay has elapsed.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop halts the loop and clears every task, including running ones.
	Stop() error
}

// TaskService is the task query surface exposed to operator tooling.
type TaskService interface {
	// Get retrieves a task by ID.
	// Returns domain.ErrNotFound if the task does not exist.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List returns all tasks ordered by creation time, oldest first.
	List(ctx context.Context) ([]domain.Task, error)

	// Stats returns task counts by status.
	Stats(ctx context.Context) domain.TaskStats

	// Cancel marks a pending or running task as cancelled.
	// Returns false if the task does not exist or already finished.
	// Cancelling a running task is best-effort: the command may still
	// run to completion, but its outcome is discarded.
	Cancel(ctx context.Context, id string) bool

	// ClearCompleted removes completed, failed and cancelled tasks.
	ClearCompleted(ctx context.Context) int

	// ClearAll removes every task regardless of status.
	ClearAll(ctx context.Context) int
}
