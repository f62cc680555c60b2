package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
)

// Compile-time interface checks.
var (
	_ driven.CommandHost = (*stubHost)(nil)
	_ driven.Notifier    = (*recordingNotifier)(nil)
	_ driven.TaskStore   = (*hookedTaskStore)(nil)
)

var errStubFailure = errors.New("boom")

// stubHost implements driven.CommandHost for testing.
// Behaviour is selected by command name:
//
//	noop.success  returns "ok"
//	noop.fail     returns errStubFailure
//	noop.nothing  returns nil
//	noop.block    waits for release or context cancellation
//	noop.stubborn waits for release and ignores cancellation
//	noop.panic    panics
//
// Any other command returns "ran <name>".
type stubHost struct {
	mu      sync.Mutex
	calls   []hostCall
	release chan struct{}

	commands     []string
	commandsErr  error
	workspace    *domain.WorkspaceInfo
	workspaceErr error
}

type hostCall struct {
	command string
	args    []any
}

func newStubHost(commands ...string) *stubHost {
	return &stubHost{
		commands: commands,
		release:  make(chan struct{}),
	}
}

func (h *stubHost) Execute(ctx context.Context, command string, args []any) (any, error) {
	h.mu.Lock()
	h.calls = append(h.calls, hostCall{command: command, args: args})
	h.mu.Unlock()

	switch command {
	case "noop.success":
		return "ok", nil
	case "noop.fail":
		return nil, errStubFailure
	case "noop.nothing":
		return nil, nil
	case "noop.block":
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-h.release:
			return "released", nil
		}
	case "noop.stubborn":
		<-h.release
		return "released", nil
	case "noop.panic":
		panic("host exploded")
	default:
		return fmt.Sprintf("ran %s", command), nil
	}
}

func (h *stubHost) ListCommands(_ context.Context) ([]string, error) {
	if h.commandsErr != nil {
		return nil, h.commandsErr
	}
	return append([]string(nil), h.commands...), nil
}

func (h *stubHost) WorkspaceInfo(_ context.Context) (*domain.WorkspaceInfo, error) {
	if h.workspaceErr != nil {
		return nil, h.workspaceErr
	}
	return h.workspace, nil
}

func (h *stubHost) Calls() []hostCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hostCall(nil), h.calls...)
}

func (h *stubHost) Release() {
	close(h.release)
}

// recordingNotifier implements driven.Notifier for testing.
type recordingNotifier struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (n *recordingNotifier) Info(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
}

func (n *recordingNotifier) Warn(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) Infos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...)
}

func (n *recordingNotifier) Warns() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.warns...)
}

func (n *recordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// hookedTaskStore wraps a TaskStore. beforeCreate runs ahead of the next
// Create, and afterDeleteWhere once the next DeleteWhere has returned.
type hookedTaskStore struct {
	driven.TaskStore
	beforeCreate     func()
	afterDeleteWhere func()
}

func (s *hookedTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if hook := s.beforeCreate; hook != nil {
		s.beforeCreate = nil
		hook()
	}
	return s.TaskStore.Create(ctx, task)
}

func (s *hookedTaskStore) DeleteWhere(ctx context.Context, pred driven.TaskPredicate) ([]domain.Task, error) {
	removed, err := s.TaskStore.DeleteWhere(ctx, pred)
	if hook := s.afterDeleteWhere; hook != nil {
		s.afterDeleteWhere = nil
		hook()
	}
	return removed, err
}
