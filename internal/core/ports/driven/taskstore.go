package driven

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// TaskMutator changes a task in place. Returning an error aborts the
// update and leaves the stored task untouched.
type TaskMutator func(task *domain.Task) error

// TaskPredicate selects tasks for bulk removal.
type TaskPredicate func(task *domain.Task) bool

// TaskStore is the registry of background tasks keyed by task ID.
// Implementations must be safe for concurrent use; every method is a
// short, non-blocking operation. Returned tasks are copies.
type TaskStore interface {
	// Create inserts a new task.
	// Returns domain.ErrInvalidInput if the ID is already present.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by ID.
	// Returns domain.ErrNotFound if the task does not exist.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List returns every task in no particular order.
	List(ctx context.Context) ([]domain.Task, error)

	// Update applies fn atomically to the stored task and returns the
	// updated copy. Returns domain.ErrNotFound if the task does not
	// exist, or fn's error if fn rejects the change.
	Update(ctx context.Context, id string, fn TaskMutator) (*domain.Task, error)

	// Delete removes a task. Deleting a missing task is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteWhere removes every task matching pred and returns the removed tasks.
	DeleteWhere(ctx context.Context, pred TaskPredicate) ([]domain.Task, error)
}
