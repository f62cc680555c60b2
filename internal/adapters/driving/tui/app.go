package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// chromeHeight is the number of lines around the task table.
const chromeHeight = 9

// App is the task monitor following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	now    func() time.Time

	// filter narrows the list by command name or task ID.
	filter    textinput.Model
	filtering bool

	tasks    []domain.Task
	stats    domain.TaskStats
	selected int
	detailID string

	currentView messages.ViewType
	message     string
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a task monitor over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "command or task id"
	filter.CharLimit = 64

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      styles.DefaultStyles(),
		keys:        keymap.DefaultKeyMap(),
		now:         time.Now,
		filter:      filter,
		currentView: messages.ViewTasks,
		width:       80,
		height:      24,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("cmdbridge tasks"),
		a.load(),
		a.tick(),
	)
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.ports.interval(), func(time.Time) tea.Msg {
		return messages.Tick{}
	})
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		tasks, err := a.ports.Tasks.List(a.ctx)
		if err != nil {
			return messages.TasksLoaded{Err: err}
		}
		return messages.TasksLoaded{Tasks: tasks, Stats: a.ports.Tasks.Stats(a.ctx)}
	}
}

func (a *App) cancelTask(id string) tea.Cmd {
	return func() tea.Msg {
		return messages.TaskCancelled{ID: id, Cancelled: a.ports.Tasks.Cancel(a.ctx, id)}
	}
}

func (a *App) clearFinished() tea.Cmd {
	return func() tea.Msg {
		return messages.TasksCleared{Removed: a.ports.Tasks.ClearCompleted(a.ctx)}
	}
}

func (a *App) reloadConfig() tea.Cmd {
	return func() tea.Msg {
		purged, err := a.ports.Config.ReloadConfig(a.ctx)
		return messages.ConfigReloaded{Purged: purged, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.Tick:
		return a, tea.Batch(a.load(), a.tick())

	case messages.TasksLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.tasks = msg.Tasks
		a.stats = msg.Stats
		a.clampSelection()
		return a, nil

	case messages.TaskCancelled:
		if msg.Cancelled {
			a.message = "Cancelled " + msg.ID
		} else {
			a.message = msg.ID + " is not pending or running"
		}
		return a, a.load()

	case messages.TasksCleared:
		a.message = fmt.Sprintf("Cleared %d finished %s", msg.Removed, plural(msg.Removed, "task", "tasks"))
		return a, a.load()

	case messages.ConfigReloaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.message = fmt.Sprintf("Configuration reloaded, %d pending %s purged",
			msg.Purged, plural(msg.Purged, "task", "tasks"))
		return a, a.load()

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.filtering {
			return a.updateFilter(msg)
		}
		if a.currentView == messages.ViewDetail {
			return a.updateDetail(msg)
		}
		return a.updateList(msg)
	}

	return a, nil
}

func (a *App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.filtering = false
		a.filter.Blur()
		return a, nil
	case tea.KeyEsc:
		a.filtering = false
		a.filter.Blur()
		a.filter.SetValue("")
		a.selected = 0
		return a, nil
	}

	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	a.selected = 0
	return a, cmd
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pressed := msg.String()
	visible := a.Visible()

	switch {
	case keymap.Matches(pressed, a.keys.Quit):
		return a, tea.Quit

	case keymap.Matches(pressed, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}

	case keymap.Matches(pressed, a.keys.Down):
		if a.selected < len(visible)-1 {
			a.selected++
		}

	case keymap.Matches(pressed, a.keys.Open):
		if len(visible) > 0 {
			a.detailID = visible[a.selected].ID
			a.currentView = messages.ViewDetail
		}

	case keymap.Matches(pressed, a.keys.Filter):
		a.filtering = true
		return a, a.filter.Focus()

	case keymap.Matches(pressed, a.keys.Back):
		if a.filter.Value() != "" {
			a.filter.SetValue("")
			a.selected = 0
		}

	case keymap.Matches(pressed, a.keys.CancelTask):
		if len(visible) > 0 {
			return a, a.cancelTask(visible[a.selected].ID)
		}

	case keymap.Matches(pressed, a.keys.ClearDone):
		return a, a.clearFinished()

	case keymap.Matches(pressed, a.keys.Refresh):
		return a, a.load()

	case keymap.Matches(pressed, a.keys.ReloadConfig):
		if a.ports.Config == nil {
			a.message = "Configuration reload is not available"
			return a, nil
		}
		return a, a.reloadConfig()
	}

	return a, nil
}

func (a *App) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pressed := msg.String()

	switch {
	case keymap.Matches(pressed, a.keys.Quit):
		return a, tea.Quit
	case keymap.Matches(pressed, a.keys.Back):
		a.currentView = messages.ViewTasks
		a.detailID = ""
	case keymap.Matches(pressed, a.keys.CancelTask):
		return a, a.cancelTask(a.detailID)
	}
	return a, nil
}

// Visible returns the tasks shown in the list, newest first, narrowed by
// the filter.
func (a *App) Visible() []domain.Task {
	query := strings.ToLower(strings.TrimSpace(a.filter.Value()))

	visible := make([]domain.Task, 0, len(a.tasks))
	for _, t := range slices.Backward(a.tasks) {
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Command), query) &&
			!strings.Contains(strings.ToLower(t.ID), query) {
			continue
		}
		visible = append(visible, t)
	}
	return visible
}

func (a *App) clampSelection() {
	n := len(a.Visible())
	if a.selected >= n {
		a.selected = n - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewDetail {
		return a.viewDetail()
	}
	return a.viewList()
}

func (a *App) viewList() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("cmdbridge tasks"))
	b.WriteString("  ")
	b.WriteString(a.viewStats())
	b.WriteString("\n\n")

	if a.filtering || a.filter.Value() != "" {
		b.WriteString(a.styles.Filter.Render(a.filter.View()))
		b.WriteString("\n")
	}

	visible := a.Visible()
	if len(visible) == 0 {
		if len(a.tasks) == 0 {
			b.WriteString(a.styles.Muted.Render("No background tasks."))
		} else {
			b.WriteString(a.styles.Muted.Render("No tasks match the filter."))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(a.styles.Header.Render(a.row("ID", "COMMAND", "STATUS", "AGE")))
		b.WriteString("\n")

		start, end := a.window(len(visible))
		for i := start; i < end; i++ {
			t := visible[i]
			line := a.row(t.ID, t.Command, t.Status.String(), formatAge(a.now().Sub(t.CreatedAt)))
			if i == a.selected {
				b.WriteString(a.styles.Selected.Render(line))
			} else {
				b.WriteString(a.styles.ForStatus(t.Status).Render(line))
			}
			b.WriteString("\n")
		}
		if end-start < len(visible) {
			b.WriteString(a.styles.Muted.Render(
				fmt.Sprintf("%d-%d of %d", start+1, end, len(visible))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(a.viewFooter(a.keys.ListHelp()))
	return b.String()
}

// window returns the slice of rows that fits the terminal and keeps the
// selection visible.
func (a *App) window(n int) (int, int) {
	rows := max(a.height-chromeHeight, 1)
	if n <= rows {
		return 0, n
	}
	start := max(a.selected-rows+1, 0)
	return start, start + rows
}

func (a *App) row(id, command, status, age string) string {
	idWidth := 28
	commandWidth := max(a.width-idWidth-24, 12)
	return fmt.Sprintf("%-*s %-*s %-10s %6s",
		idWidth, truncate(id, idWidth),
		commandWidth, truncate(command, commandWidth),
		status, age)
}

func (a *App) viewStats() string {
	parts := []string{
		a.styles.ForStatus(domain.TaskPending).Render(fmt.Sprintf("%d pending", a.stats.Pending)),
		a.styles.ForStatus(domain.TaskRunning).Render(fmt.Sprintf("%d running", a.stats.Running)),
		a.styles.ForStatus(domain.TaskCompleted).Render(fmt.Sprintf("%d completed", a.stats.Completed)),
		a.styles.ForStatus(domain.TaskFailed).Render(fmt.Sprintf("%d failed", a.stats.Failed)),
		a.styles.ForStatus(domain.TaskCancelled).Render(fmt.Sprintf("%d cancelled", a.stats.Cancelled)),
	}
	return strings.Join(parts, a.styles.Muted.Render(" | "))
}

func (a *App) viewDetail() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Task " + a.detailID))
	b.WriteString("\n\n")

	task := a.findTask(a.detailID)
	if task == nil {
		b.WriteString(a.styles.Muted.Render("This task no longer exists."))
		b.WriteString("\n\n")
		b.WriteString(a.viewFooter(a.keys.DetailHelp()))
		return b.String()
	}

	var body strings.Builder
	field := func(name, value string) {
		body.WriteString(a.styles.Header.Render(fmt.Sprintf("%-10s", name)))
		body.WriteString(" ")
		body.WriteString(value)
		body.WriteString("\n")
	}

	field("Command", task.Command)
	field("Arguments", compactJSON(task.Arguments))
	field("Status", a.styles.ForStatus(task.Status).Render(task.Status.String()))
	field("Created", task.CreatedAt.Format(time.RFC3339))
	if task.Delay > 0 {
		field("Delay", task.Delay.String())
	}
	if task.StartedAt != nil {
		field("Started", task.StartedAt.Format(time.RFC3339))
	}
	if task.CompletedAt != nil {
		field("Finished", task.CompletedAt.Format(time.RFC3339))
		if task.StartedAt != nil {
			field("Duration", task.CompletedAt.Sub(*task.StartedAt).Round(time.Millisecond).String())
		}
	}

	switch task.Status {
	case domain.TaskCompleted:
		body.WriteString("\n")
		body.WriteString(a.styles.Success.Render("Result"))
		body.WriteString("\n")
		body.WriteString(formatResult(task.Result))
	case domain.TaskFailed:
		body.WriteString("\n")
		body.WriteString(a.styles.Error.Render("Error"))
		body.WriteString("\n")
		body.WriteString(task.Error)
	}

	b.WriteString(a.styles.Panel.Width(max(a.width-4, 20)).Render(strings.TrimRight(body.String(), "\n")))
	b.WriteString("\n\n")
	b.WriteString(a.viewFooter(a.keys.DetailHelp()))
	return b.String()
}

func (a *App) viewFooter(help []key.Binding) string {
	var b strings.Builder
	if a.err != nil {
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	} else if a.message != "" {
		b.WriteString(a.styles.Status.Render(a.message))
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render(keymap.HelpLine(help)))
	return lipgloss.NewStyle().MaxWidth(a.width).Render(b.String())
}

func (a *App) findTask(id string) *domain.Task {
	for i := range a.tasks {
		if a.tasks[i].ID == id {
			return &a.tasks[i]
		}
	}
	return nil
}

// Run starts the monitor and blocks until the user quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Selected returns the index of the highlighted task in Visible.
func (a *App) Selected() int {
	return a.selected
}

// Message returns the last status message.
func (a *App) Message() string {
	return a.message
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.filter.Width = max(width-8, 10)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "<1s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// formatResult prints strings verbatim and other values as indented JSON.
func formatResult(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimRight(s, "\n")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
