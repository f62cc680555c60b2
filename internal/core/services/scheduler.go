package services

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure Scheduler implements the interfaces.
var (
	_ driving.Scheduler   = (*Scheduler)(nil)
	_ driving.TaskService = (*Scheduler)(nil)
)

// Scheduler queues background command executions and runs each one once
// its delay has elapsed. Execution is fire-and-forget: every command runs
// in its own goroutine, so a slow command never holds up later tasks.
//
// Pending tasks are indexed in a min-heap keyed by eligibility time. The
// loop sleeps until the earliest task becomes eligible, bounded by the
// poll interval, or until a submission wakes it.
type Scheduler struct {
	store    driven.TaskStore
	host     driven.CommandHost
	notifier driven.Notifier

	now             func() time.Time
	pollInterval    atomic.Int64
	notifyOnSuccess atomic.Bool
	seq             atomic.Uint64

	queueMu sync.Mutex
	queue   eligibilityQueue
	wake    chan struct{}

	// tickMu keeps passes from overlapping.
	tickMu sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler backed by store that runs commands on host.
// notifier may be nil, in which case outcomes are only logged.
func NewScheduler(
	store driven.TaskStore,
	host driven.CommandHost,
	notifier driven.Notifier,
) *Scheduler {
	s := &Scheduler{
		store:    store,
		host:     host,
		notifier: notifier,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
		inflight: make(map[string]context.CancelFunc),
	}
	s.pollInterval.Store(int64(domain.DefaultPollInterval))
	return s
}

// SetPollInterval bounds how long the loop sleeps between passes.
// Non-positive values are ignored.
func (s *Scheduler) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.pollInterval.Store(int64(d))
	s.signal()
}

// PollInterval returns the current poll interval.
func (s *Scheduler) PollInterval() time.Duration {
	return time.Duration(s.pollInterval.Load())
}

// SetCompletionNotifications toggles notifications for successful tasks.
// Failures are always notified.
func (s *Scheduler) SetCompletionNotifications(enabled bool) {
	s.notifyOnSuccess.Store(enabled)
}

// Submit creates a pending task and queues it for execution after delay.
// It never waits on the host.
func (s *Scheduler) Submit(ctx context.Context, command string, args []any, delay time.Duration) (*domain.Task, error) {
	if delay < 0 {
		delay = 0
	}
	if args == nil {
		args = []any{}
	}

	now := s.now()
	seq := s.seq.Add(1)
	task := &domain.Task{
		ID:        newTaskID(now, seq),
		Seq:       seq,
		Command:   command,
		Arguments: args,
		Delay:     delay,
		Status:    domain.TaskPending,
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("storing task: %w", err)
	}

	s.queueMu.Lock()
	heap.Push(&s.queue, queueEntry{
		id:         task.ID,
		eligibleAt: task.EligibleAt(),
		createdAt:  task.CreatedAt,
		seq:        seq,
	})
	s.queueMu.Unlock()
	s.signal()

	logger.Debug("scheduler: queued task %s (%s) with delay %s", task.ID, command, delay)
	return task.Clone(), nil
}

// newTaskID combines a timestamp, a process-wide sequence number and a
// random suffix, so IDs are never reused within a process.
func newTaskID(now time.Time, seq uint64) string {
	return fmt.Sprintf("task-%d-%d-%s", now.UnixMilli(), seq, uuid.NewString()[:8])
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	stopCh := make(chan struct{})
	done := make(chan struct{})
	s.stopCh = stopCh
	s.done = done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	logger.Info("scheduler: started with poll interval %s", s.PollInterval())
	return s.run(ctx, stopCh)
}

// Stop halts the loop, signals every in-flight command to stop, and
// clears the task store. Commands that ignore the signal keep running,
// but their outcomes are discarded.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	wasRunning := s.running
	var done chan struct{}
	if wasRunning {
		s.running = false
		close(s.stopCh)
		done = s.done
	}
	s.mu.Unlock()

	if wasRunning {
		<-done
	}

	// Clear first so outcomes of interrupted commands find nothing to update.
	cleared := s.ClearAll(context.Background())

	s.inflightMu.Lock()
	for id, cancel := range s.inflight {
		cancel()
		delete(s.inflight, id)
	}
	s.inflightMu.Unlock()

	logger.Info("scheduler: stopped, %d tasks discarded", cleared)
	return nil
}

// Drain waits until every dispatched command has returned or ctx is done.
func (s *Scheduler) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	timer := time.NewTimer(s.PollInterval())
	defer timer.Stop()

	for {
		s.Tick(ctx)

		var timeout <-chan time.Time
		if wait, ok := s.nextWait(); ok {
			timer.Reset(wait)
			timeout = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-s.wake:
		case <-timeout:
		}
		timer.Stop()
	}
}

// nextWait returns how long to sleep before the next pass, or false if
// the queue is empty and the loop should wait for a submission.
func (s *Scheduler) nextWait() (time.Duration, bool) {
	s.queueMu.Lock()
	next, ok := s.queue.next()
	s.queueMu.Unlock()
	if !ok {
		return 0, false
	}

	wait := next.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	if poll := s.PollInterval(); wait > poll {
		wait = poll
	}
	return wait, true
}

// signal wakes the loop without blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Tick runs one scheduling pass: every pending task whose delay has
// elapsed is moved to running, oldest first, and handed to the host.
// It returns the number of tasks started. A pass that would overlap
// one already in progress is skipped.
func (s *Scheduler) Tick(ctx context.Context) int {
	if !s.tickMu.TryLock() {
		logger.Debug("scheduler: pass already in progress, skipping")
		return 0
	}
	defer s.tickMu.Unlock()

	now := s.now()
	s.queueMu.Lock()
	due := s.queue.popDue(now)
	s.queueMu.Unlock()

	started := 0
	for _, entry := range due {
		task, err := s.store.Update(ctx, entry.id, func(t *domain.Task) error {
			return t.Start(now)
		})
		if err != nil {
			// Cancelled, purged or cleared since it was queued.
			logger.Debug("scheduler: skipping task %s: %v", entry.id, err)
			continue
		}
		s.dispatch(ctx, task)
		started++
	}
	return started
}

// dispatch runs a task's command in its own goroutine.
func (s *Scheduler) dispatch(ctx context.Context, task *domain.Task) {
	execCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.inflightMu.Lock()
	s.inflight[task.ID] = cancel
	s.inflightMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(task.ID)

		logger.Debug("scheduler: running task %s (%s)", task.ID, task.Command)
		result, err := callHost(execCtx, s.host, task.Command, task.Arguments)
		s.finish(task.ID, result, err)
	}()
}

// release drops the cancel func for a finished task.
func (s *Scheduler) release(id string) {
	s.inflightMu.Lock()
	cancel, ok := s.inflight[id]
	delete(s.inflight, id)
	s.inflightMu.Unlock()
	if ok {
		cancel()
	}
}

// finish records a command's outcome. Outcomes for tasks that were
// cancelled or cleared in the meantime are discarded.
func (s *Scheduler) finish(id string, result any, execErr error) {
	now := s.now()
	task, err := s.store.Update(context.Background(), id, func(t *domain.Task) error {
		if execErr != nil {
			return t.Fail(now, execErr.Error())
		}
		return t.Complete(now, result)
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("scheduler: task %s was cleared, discarding outcome", id)
		return
	case err != nil:
		logger.Debug("scheduler: task %s is no longer running, discarding outcome", id)
		return
	}

	if task.Status == domain.TaskFailed {
		s.notifyError(fmt.Sprintf("Command %q failed (task %s): %s", task.Command, task.ID, task.Error))
		return
	}

	logger.Debug("scheduler: task %s completed", task.ID)
	if s.notifyOnSuccess.Load() {
		s.notifyInfo(fmt.Sprintf("Command %q completed (task %s)", task.Command, task.ID))
	}
}

func (s *Scheduler) notifyError(message string) {
	if s.notifier == nil {
		logger.Error("%s", message)
		return
	}
	s.notifier.Error(message)
}

func (s *Scheduler) notifyInfo(message string) {
	if s.notifier == nil {
		logger.Info("%s", message)
		return
	}
	s.notifier.Info(message)
}

// Get retrieves a task by ID.
func (s *Scheduler) Get(ctx context.Context, id string) (*domain.Task, error) {
	return s.store.Get(ctx, id)
}

// List returns all tasks ordered by creation time, oldest first.
func (s *Scheduler) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].Seq < tasks[j].Seq
	})
	return tasks, nil
}

// Stats returns task counts by status.
func (s *Scheduler) Stats(ctx context.Context) domain.TaskStats {
	tasks, err := s.store.List(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return domain.TaskStats{}
	}
	return domain.ComputeStats(tasks)
}

// QueueLength returns the number of pending and running tasks.
func (s *Scheduler) QueueLength(ctx context.Context) int {
	return s.Stats(ctx).QueueLength()
}

// Cancel marks a pending or running task as cancelled. For a running
// task the host is also asked to stop, which it may ignore.
func (s *Scheduler) Cancel(ctx context.Context, id string) bool {
	if _, err := s.store.Update(ctx, id, func(t *domain.Task) error {
		return t.Cancel(s.now())
	}); err != nil {
		return false
	}

	s.inflightMu.Lock()
	cancel, ok := s.inflight[id]
	s.inflightMu.Unlock()
	if ok {
		cancel()
	}

	logger.Debug("scheduler: task %s cancelled", id)
	return true
}

// PurgePending cancels and removes every pending task matching pred.
// The returned copies carry the cancelled status.
func (s *Scheduler) PurgePending(ctx context.Context, pred driven.TaskPredicate) []domain.Task {
	removed, err := s.store.DeleteWhere(ctx, func(t *domain.Task) bool {
		return t.Status == domain.TaskPending && pred(t)
	})
	if err != nil {
		logger.Warn("scheduler: failed to purge pending tasks: %v", err)
		return nil
	}

	now := s.now()
	for i := range removed {
		_ = removed[i].Cancel(now)
	}
	return removed
}

// ClearCompleted removes completed, failed and cancelled tasks.
func (s *Scheduler) ClearCompleted(ctx context.Context) int {
	removed, err := s.store.DeleteWhere(ctx, func(t *domain.Task) bool {
		return t.Status.IsTerminal()
	})
	if err != nil {
		logger.Warn("scheduler: failed to clear finished tasks: %v", err)
		return 0
	}
	return len(removed)
}

// ClearAll removes every task regardless of status. Commands already
// running are not interrupted; their outcomes are discarded.
func (s *Scheduler) ClearAll(ctx context.Context) int {
	removed, err := s.store.DeleteWhere(ctx, func(*domain.Task) bool {
		return true
	})
	if err != nil {
		logger.Warn("scheduler: failed to clear tasks: %v", err)
		return 0
	}

	// Only entries for removed tasks are dropped; a Submit racing with
	// the delete may already have queued a task that must still run.
	ids := make(map[string]bool, len(removed))
	for i := range removed {
		ids[removed[i].ID] = true
	}
	s.queueMu.Lock()
	s.queue.drop(ids)
	s.queueMu.Unlock()

	return len(removed)
}
