package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleTasks() []domain.Task {
	started := testNow.Add(-50 * time.Second)
	finished := testNow.Add(-48 * time.Second)
	return []domain.Task{
		{
			ID: "task-1", Command: "git.status", Arguments: []any{"-s"},
			Status: domain.TaskCompleted, CreatedAt: testNow.Add(-time.Minute),
			StartedAt: &started, CompletedAt: &finished, Result: "clean\n",
		},
		{
			ID: "task-2", Command: "make.build", Arguments: []any{},
			Status: domain.TaskFailed, CreatedAt: testNow.Add(-30 * time.Second),
			StartedAt: &started, CompletedAt: &finished, Error: "exit status 2",
		},
		{
			ID: "task-3", Command: "make.test", Arguments: []any{},
			Status: domain.TaskPending, CreatedAt: testNow.Add(-2 * time.Second), Delay: 5 * time.Second,
		},
	}
}

// newTestApp returns a sized app with tasks already loaded.
func newTestApp(t *testing.T, svc *mockTaskService) *App {
	t.Helper()
	app, err := NewApp(&Ports{Tasks: svc})
	require.NoError(t, err)
	app.now = func() time.Time { return testNow }
	app.SetDimensions(120, 40)

	msg := app.load()()
	app.Update(msg)
	return app
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingTaskService)
}

func TestApp_ViewBeforeReady(t *testing.T) {
	app, err := NewApp(&Ports{Tasks: &mockTaskService{}})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
	assert.False(t, app.Ready())

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.True(t, app.Ready())
}

func TestApp_Init(t *testing.T) {
	app, err := NewApp(&Ports{Tasks: &mockTaskService{}})
	require.NoError(t, err)
	assert.NotNil(t, app.Init())
}

func TestApp_ListsNewestFirst(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	visible := app.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, "task-3", visible[0].ID)
	assert.Equal(t, "task-1", visible[2].ID)

	view := app.View()
	assert.Contains(t, view, "cmdbridge tasks")
	assert.Contains(t, view, "1 pending")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "make.test")
	assert.Contains(t, view, "1m")
}

func TestApp_EmptyList(t *testing.T) {
	app := newTestApp(t, &mockTaskService{})

	assert.Contains(t, app.View(), "No background tasks.")
}

func TestApp_LoadError(t *testing.T) {
	app := newTestApp(t, &mockTaskService{listErr: errors.New("connection refused")})

	require.Error(t, app.Err())
	assert.Contains(t, app.View(), "Error: connection refused")
}

func TestApp_Navigation(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.Selected())

	app.Update(keyRunes("j"))
	app.Update(keyRunes("j"))
	app.Update(keyRunes("j"))
	assert.Equal(t, 2, app.Selected())

	app.Update(keyRunes("k"))
	assert.Equal(t, 1, app.Selected())
}

func TestApp_DetailView(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	app.Update(keyRunes("j"))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, messages.ViewDetail, app.CurrentView())

	view := app.View()
	assert.Contains(t, view, "Task task-2")
	assert.Contains(t, view, "make.build")
	assert.Contains(t, view, "exit status 2")
	assert.Contains(t, view, "2s")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewTasks, app.CurrentView())
}

func TestApp_DetailView_Completed(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	app.Update(keyRunes("j"))
	app.Update(keyRunes("j"))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	view := app.View()
	assert.Contains(t, view, "Result")
	assert.Contains(t, view, "clean")
	assert.Contains(t, view, `["-s"]`)
}

func TestApp_DetailView_TaskVanished(t *testing.T) {
	svc := &mockTaskService{tasks: sampleTasks()}
	app := newTestApp(t, svc)
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	app.Update(messages.TasksLoaded{Tasks: nil})

	assert.Contains(t, app.View(), "This task no longer exists.")
}

func TestApp_CancelSelected(t *testing.T) {
	svc := &mockTaskService{tasks: sampleTasks(), cancelOK: true}
	app := newTestApp(t, svc)

	_, cmd := app.Update(keyRunes("x"))
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, messages.TaskCancelled{ID: "task-3", Cancelled: true}, msg)
	assert.Equal(t, []string{"task-3"}, svc.cancelled)

	_, reload := app.Update(msg)
	assert.NotNil(t, reload)
	assert.Equal(t, "Cancelled task-3", app.Message())
}

func TestApp_CancelRejected(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	app.Update(messages.TaskCancelled{ID: "task-1", Cancelled: false})

	assert.Equal(t, "task-1 is not pending or running", app.Message())
}

func TestApp_CancelFromDetail(t *testing.T) {
	svc := &mockTaskService{tasks: sampleTasks(), cancelOK: true}
	app := newTestApp(t, svc)
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := app.Update(keyRunes("x"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []string{"task-3"}, svc.cancelled)
}

func TestApp_ClearFinished(t *testing.T) {
	svc := &mockTaskService{tasks: sampleTasks()}
	app := newTestApp(t, svc)

	_, cmd := app.Update(keyRunes("c"))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, 1, svc.cleared)
	assert.Equal(t, "Cleared 3 finished tasks", app.Message())
}

func TestApp_Filter(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	app.Update(keyRunes("/"))
	for _, r := range "make" {
		app.Update(keyRunes(string(r)))
	}
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	visible := app.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "task-3", visible[0].ID)
	assert.Equal(t, "task-2", visible[1].ID)
	assert.NotContains(t, app.View(), "git.status")

	// Keys act on the list again once the filter is applied.
	app.Update(keyRunes("j"))
	assert.Equal(t, 1, app.Selected())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, app.Visible(), 3)
}

func TestApp_FilterNoMatch(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})

	app.Update(keyRunes("/"))
	app.Update(keyRunes("z"))

	assert.Contains(t, app.View(), "No tasks match the filter.")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, app.Visible(), 3)
}

func TestApp_ReloadConfig(t *testing.T) {
	reloader := &mockReloader{purged: 1}
	app, err := NewApp(&Ports{Tasks: &mockTaskService{}, Config: reloader})
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(keyRunes("R"))
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, 1, reloader.calls)
	assert.Equal(t, "Configuration reloaded, 1 pending task purged", app.Message())
}

func TestApp_ReloadConfig_Unavailable(t *testing.T) {
	app := newTestApp(t, &mockTaskService{})

	_, cmd := app.Update(keyRunes("R"))

	assert.Nil(t, cmd)
	assert.Equal(t, "Configuration reload is not available", app.Message())
}

func TestApp_ReloadConfig_Error(t *testing.T) {
	app := newTestApp(t, &mockTaskService{})

	app.Update(messages.ConfigReloaded{Err: errors.New("invalid toml")})

	assert.Contains(t, app.View(), "invalid toml")
}

func TestApp_TickReloads(t *testing.T) {
	app := newTestApp(t, &mockTaskService{})

	_, cmd := app.Update(messages.Tick{})

	assert.NotNil(t, cmd)
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &mockTaskService{})

	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_SelectionClampedAfterReload(t *testing.T) {
	app := newTestApp(t, &mockTaskService{tasks: sampleTasks()})
	app.Update(keyRunes("j"))
	app.Update(keyRunes("j"))

	app.Update(messages.TasksLoaded{Tasks: sampleTasks()[:1]})

	assert.Equal(t, 0, app.Selected())
}

func TestApp_WindowScrolls(t *testing.T) {
	var tasks []domain.Task
	for i := 0; i < 30; i++ {
		tasks = append(tasks, domain.Task{
			ID: "task-" + string(rune('a'+i%26)) + string(rune('a'+i/26)), Command: "noop", Status: domain.TaskCompleted,
			CreatedAt: testNow,
		})
	}
	app := newTestApp(t, &mockTaskService{tasks: tasks})
	app.SetDimensions(120, 15)

	for i := 0; i < 25; i++ {
		app.Update(keyRunes("j"))
	}

	start, end := app.window(30)
	assert.LessOrEqual(t, start, 25)
	assert.Greater(t, end, 25)
	assert.Contains(t, app.View(), "of 30")
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "<1s"},
		{42 * time.Second, "42s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{50 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatAge(tt.d))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "make.bu…", truncate("make.build", 8))
	assert.Equal(t, "m", truncate("make", 1))
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "clean", formatResult("clean\n"))
	assert.Equal(t, "{\n  \"exitCode\": 0\n}", formatResult(map[string]int{"exitCode": 0}))
}
