package admin

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// mockTaskService is a mock implementation of driving.TaskService.
type mockTaskService struct {
	tasks         []domain.Task
	byID          map[string]*domain.Task
	stats         domain.TaskStats
	listErr       error
	getErr        error
	cancellable   map[string]bool
	clearedScopes []string
}

func (m *mockTaskService) Get(_ context.Context, id string) (*domain.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (m *mockTaskService) List(_ context.Context) ([]domain.Task, error) {
	return m.tasks, m.listErr
}

func (m *mockTaskService) Stats(_ context.Context) domain.TaskStats {
	return m.stats
}

func (m *mockTaskService) Cancel(_ context.Context, id string) bool {
	return m.cancellable[id]
}

func (m *mockTaskService) ClearCompleted(_ context.Context) int {
	m.clearedScopes = append(m.clearedScopes, ScopeCompleted)
	return 2
}

func (m *mockTaskService) ClearAll(_ context.Context) int {
	m.clearedScopes = append(m.clearedScopes, ScopeAll)
	return 5
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	report    *domain.RefreshReport
	err       error
	refreshed int
}

func (m *mockSettingsService) Get() (*domain.ExecutionSettings, error) {
	settings := domain.DefaultExecutionSettings()
	return &settings, nil
}

func (m *mockSettingsService) Refresh(_ context.Context) (*domain.RefreshReport, error) {
	m.refreshed++
	return m.report, m.err
}

func (m *mockSettingsService) GetDefaults() domain.ExecutionSettings {
	return domain.DefaultExecutionSettings()
}
