package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// mockTaskService implements driving.TaskService for testing.
type mockTaskService struct {
	mu        sync.Mutex
	tasks     []domain.Task
	listErr   error
	cancelled []string
	cancelOK  bool
	cleared   int
}

func (m *mockTaskService) Get(_ context.Context, id string) (*domain.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			return &m.tasks[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTaskService) List(_ context.Context) ([]domain.Task, error) {
	return m.tasks, m.listErr
}

func (m *mockTaskService) Stats(_ context.Context) domain.TaskStats {
	var stats domain.TaskStats
	for _, t := range m.tasks {
		stats.Add(t.Status)
	}
	return stats
}

func (m *mockTaskService) Cancel(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, id)
	return m.cancelOK
}

func (m *mockTaskService) ClearCompleted(_ context.Context) int {
	m.cleared++
	return 3
}

func (m *mockTaskService) ClearAll(_ context.Context) int {
	return 0
}

// mockReloader implements ConfigReloader for testing.
type mockReloader struct {
	purged int
	err    error
	calls  int
}

func (m *mockReloader) ReloadConfig(_ context.Context) (int, error) {
	m.calls++
	return m.purged, m.err
}
