package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure Gateway implements the interface.
var _ driving.CommandGateway = (*Gateway)(nil)

// Gateway runs allowed commands either directly on the host or as
// background tasks, depending on the current settings snapshot.
type Gateway struct {
	gate      *AllowListGate
	scheduler *Scheduler
	host      driven.CommandHost
	notifier  driven.Notifier

	settings atomic.Pointer[domain.ExecutionSettings]
	limiter  atomic.Pointer[rate.Limiter]

	// applyMu serialises refreshes. Submit holds it for reading from the
	// allow-list check until an async task is queued, so no task queued
	// under old settings survives a purge.
	applyMu sync.RWMutex
}

// NewGateway creates a gateway with an initial settings snapshot.
// notifier may be nil, in which case warnings are only logged.
func NewGateway(
	scheduler *Scheduler,
	host driven.CommandHost,
	notifier driven.Notifier,
	settings domain.ExecutionSettings,
) *Gateway {
	g := &Gateway{
		gate:      NewAllowListGate(nil),
		scheduler: scheduler,
		host:      host,
		notifier:  notifier,
	}
	g.install(settings)
	return g
}

// IsAllowed reports whether the current allow-list permits command.
func (g *Gateway) IsAllowed(command string) bool {
	return g.gate.IsAllowed(command)
}

// AllowList returns the current allow-list snapshot.
func (g *Gateway) AllowList() domain.AllowList {
	return g.gate.Snapshot()
}

// Settings returns the current settings snapshot.
func (g *Gateway) Settings() domain.ExecutionSettings {
	if s := g.settings.Load(); s != nil {
		return *s
	}
	return domain.DefaultExecutionSettings()
}

// Submit executes or queues command. Rejected commands never reach the
// host and never create a task.
func (g *Gateway) Submit(ctx context.Context, command string, args []any) (*domain.ExecutionOutcome, error) {
	g.applyMu.RLock()
	if !g.gate.IsAllowed(command) {
		g.applyMu.RUnlock()
		logger.Debug("gateway: rejected %q by allow-list", command)
		return nil, fmt.Errorf("%w: %s", domain.ErrNotAllowed, command)
	}

	if limiter := g.limiter.Load(); limiter != nil && !limiter.Allow() {
		g.applyMu.RUnlock()
		return nil, fmt.Errorf("%w: too many execute requests, try again shortly", domain.ErrRateLimited)
	}

	if args == nil {
		args = []any{}
	}

	settings := g.Settings()
	if !settings.AsyncExecution {
		// The host may be slow; refreshes must not wait on it.
		g.applyMu.RUnlock()
		return g.runSync(ctx, command, args)
	}

	defer g.applyMu.RUnlock()
	return g.runAsync(ctx, command, args, settings)
}

func (g *Gateway) runSync(ctx context.Context, command string, args []any) (*domain.ExecutionOutcome, error) {
	logger.Debug("gateway: executing %q synchronously", command)

	result, err := callHost(ctx, g.host, command, args)
	if err != nil {
		if errors.Is(err, domain.ErrHostExecution) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrHostExecution, err)
	}

	return &domain.ExecutionOutcome{
		Mode:   domain.ExecutionSync,
		Result: result,
	}, nil
}

func (g *Gateway) runAsync(
	ctx context.Context,
	command string,
	args []any,
	settings domain.ExecutionSettings,
) (*domain.ExecutionOutcome, error) {
	task, err := g.scheduler.Submit(ctx, command, args, settings.ExecutionDelay)
	if err != nil {
		return nil, fmt.Errorf("queue command: %w", err)
	}

	stats := g.scheduler.Stats(ctx)
	return &domain.ExecutionOutcome{
		Mode:        domain.ExecutionAsync,
		Task:        task,
		Message:     fmt.Sprintf("Command '%s' queued for background execution (task %s)", command, task.ID),
		QueueLength: stats.QueueLength(),
		Stats:       stats,
	}, nil
}

// Apply installs a new settings snapshot. Pending tasks are cancelled and
// purged when async execution is switched off, or when the new allow-list
// rejects their command. Running tasks are left to finish. A single
// warning is raised if anything was purged.
func (g *Gateway) Apply(ctx context.Context, settings domain.ExecutionSettings) domain.RefreshReport {
	g.applyMu.Lock()
	defer g.applyMu.Unlock()

	previous := g.Settings()
	settings.AllowedCommands = settings.AllowedCommands.Normalise()

	report := domain.RefreshReport{
		ModeChanged:      previous.AsyncExecution != settings.AsyncExecution,
		AllowListChanged: !slices.Equal(g.gate.Snapshot(), settings.AllowedCommands),
	}

	g.install(settings)

	var purged []domain.Task
	switch {
	case !settings.AsyncExecution:
		purged = g.scheduler.PurgePending(ctx, func(*domain.Task) bool { return true })
	case report.AllowListChanged:
		purged = g.scheduler.PurgePending(ctx, func(t *domain.Task) bool {
			return !settings.AllowedCommands.Allows(t.Command)
		})
	}

	for i := range purged {
		report.PurgedTaskIDs = append(report.PurgedTaskIDs, purged[i].ID)
	}

	if n := report.Purged(); n > 0 {
		g.warn(purgeWarning(n, settings.AsyncExecution))
	}

	logger.Info("gateway: settings applied (mode %s, %d allow-list entries, %d tasks purged)",
		settings.Mode(), len(settings.AllowedCommands), report.Purged())
	return report
}

// install swaps every component to the new settings.
func (g *Gateway) install(settings domain.ExecutionSettings) {
	g.gate.Replace(settings.AllowedCommands)

	if settings.SubmitRateLimit > 0 {
		burst := settings.SubmitBurst
		if burst < 1 {
			burst = domain.DefaultSubmitBurst
		}
		g.limiter.Store(rate.NewLimiter(rate.Limit(settings.SubmitRateLimit), burst))
	} else {
		g.limiter.Store(nil)
	}

	if g.scheduler != nil {
		g.scheduler.SetCompletionNotifications(settings.ShowCompletionNotifications)
		g.scheduler.SetPollInterval(settings.PollInterval)
	}

	snapshot := settings
	snapshot.AllowedCommands = g.gate.Snapshot()
	g.settings.Store(&snapshot)
}

func purgeWarning(n int, async bool) string {
	noun := "tasks"
	if n == 1 {
		noun = "task"
	}
	if !async {
		return fmt.Sprintf("Async execution disabled: cancelled %d pending %s", n, noun)
	}
	return fmt.Sprintf("Allowed commands changed: cancelled %d pending %s no longer permitted", n, noun)
}

func (g *Gateway) warn(message string) {
	if g.notifier == nil {
		logger.Warn("%s", message)
		return
	}
	g.notifier.Warn(message)
}
