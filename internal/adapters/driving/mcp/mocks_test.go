package mcp

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// mockDispatcher is a mock implementation of driving.Dispatcher.
type mockDispatcher struct {
	result     domain.ToolResult
	lastTool   string
	lastParams map[string]any
}

func (m *mockDispatcher) Invoke(_ context.Context, tool string, params map[string]any) domain.ToolResult {
	m.lastTool = tool
	m.lastParams = params
	return m.result
}

// mockTaskService is a mock implementation of driving.TaskService.
type mockTaskService struct {
	tasks []domain.Task
	task  *domain.Task
	stats domain.TaskStats
	err   error
}

func (m *mockTaskService) Get(_ context.Context, _ string) (*domain.Task, error) {
	return m.task, m.err
}

func (m *mockTaskService) List(_ context.Context) ([]domain.Task, error) {
	return m.tasks, m.err
}

func (m *mockTaskService) Stats(_ context.Context) domain.TaskStats {
	return m.stats
}

func (m *mockTaskService) Cancel(_ context.Context, _ string) bool {
	return m.err == nil
}

func (m *mockTaskService) ClearCompleted(_ context.Context) int {
	return 0
}

func (m *mockTaskService) ClearAll(_ context.Context) int {
	return len(m.tasks)
}
