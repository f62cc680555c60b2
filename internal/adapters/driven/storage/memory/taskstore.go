package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
)

// Ensure TaskStore implements the interface.
var _ driven.TaskStore = (*TaskStore)(nil)

// TaskStore is an in-memory implementation of driven.TaskStore.
// Task state lives only for the life of the process.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*domain.Task),
	}
}

// Create inserts a new task.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task %s already exists", domain.ErrInvalidInput, task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(_ context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task.Clone(), nil
}

// List returns every task in no particular order.
func (s *TaskStore) List(_ context.Context) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, *task.Clone())
	}
	return tasks, nil
}

// Update applies fn to a working copy and stores it only if fn succeeds.
func (s *TaskStore) Update(_ context.Context, id string, fn driven.TaskMutator) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	working := task.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	// ID is immutable.
	working.ID = id
	s.tasks[id] = working
	return working.Clone(), nil
}

// Delete removes a task.
func (s *TaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

// DeleteWhere removes every task matching pred.
func (s *TaskStore) DeleteWhere(_ context.Context, pred driven.TaskPredicate) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []domain.Task
	for id, task := range s.tasks {
		if pred(task) {
			removed = append(removed, *task.Clone())
			delete(s.tasks, id)
		}
	}
	return removed, nil
}
