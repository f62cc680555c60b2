package cli

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// mockDispatcher implements driving.Dispatcher for testing.
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

// mockTaskService implements driving.TaskService. Each Get returns the
// next status in statuses, repeating the last one.
type mockTaskService struct {
	mu        sync.Mutex
	task      domain.Task
	statuses  []domain.TaskStatus
	gets      int
	cancelled []string
	getErr    error
}

func (m *mockTaskService) Get(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}

	task := m.task
	task.ID = id
	if len(m.statuses) > 0 {
		i := min(m.gets, len(m.statuses)-1)
		task.Status = m.statuses[i]
	}
	m.gets++
	return &task, nil
}

func (m *mockTaskService) List(_ context.Context) ([]domain.Task, error) {
	return []domain.Task{m.task}, nil
}

func (m *mockTaskService) Stats(_ context.Context) domain.TaskStats {
	return domain.TaskStats{Total: 1}
}

func (m *mockTaskService) Cancel(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, id)
	return true
}

func (m *mockTaskService) ClearCompleted(_ context.Context) int { return 0 }

func (m *mockTaskService) ClearAll(_ context.Context) int { return 0 }

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings domain.ExecutionSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.ExecutionSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Refresh(_ context.Context) (*domain.RefreshReport, error) {
	return &domain.RefreshReport{}, nil
}

func (m *mockSettingsService) GetDefaults() domain.ExecutionSettings {
	return domain.DefaultExecutionSettings()
}

// mockHost implements driven.CommandHost.
type mockHost struct {
	commands []string
	err      error
}

func (m *mockHost) Execute(_ context.Context, command string, _ []any) (any, error) {
	return "ran " + command, nil
}

func (m *mockHost) ListCommands(_ context.Context) ([]string, error) {
	return m.commands, m.err
}

func (m *mockHost) WorkspaceInfo(_ context.Context) (*domain.WorkspaceInfo, error) {
	return nil, domain.ErrNoActiveContext
}

// mockScheduler implements driving.Scheduler.
type mockScheduler struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockScheduler) wasStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// setupServices installs s for the duration of a test and resets flags.
func setupServices(s *Services) func() {
	old := Services{
		Dispatcher:    dispatcher,
		Tasks:         taskService,
		Settings:      settingsService,
		Scheduler:     scheduler,
		Host:          commandHost,
		Notifications: notifications,
		ConfigWatcher: configWatcher,
		ConfigPath:    configPath,
	}
	oldBuilder := builder
	oldPoll := invokePoll

	SetServices(s)
	builder = nil
	invokePoll = 5 * time.Millisecond

	return func() {
		SetServices(&old)
		builder = oldBuilder
		invokePoll = oldPoll
		configDir = ""
		resetInvokeFlags()
	}
}

func resetInvokeFlags() {
	invokeCommand = ""
	invokeArgs = nil
	invokeJSON = false
	invokeTimeout = 5 * time.Minute
	for _, name := range []string{"command", "arg", "json", "timeout"} {
		if f := invokeCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}

// run executes the root command with args, returning stdout and stderr.
func run(args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
