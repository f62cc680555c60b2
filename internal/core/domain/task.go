package domain

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

// Task lifecycle states.
const (
	// TaskPending is a task waiting for its delay to elapse.
	TaskPending TaskStatus = "pending"

	// TaskRunning is a task whose command has been handed to the host.
	TaskRunning TaskStatus = "running"

	// TaskCompleted is a task whose command returned a result.
	TaskCompleted TaskStatus = "completed"

	// TaskFailed is a task whose command raised an error.
	TaskFailed TaskStatus = "failed"

	// TaskCancelled is a task stopped by an explicit request.
	TaskCancelled TaskStatus = "cancelled"
)

// IsValid returns true if the status is recognised.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskRunning, TaskCompleted, TaskFailed, TaskCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the task can no longer change state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// IsActive returns true for tasks counted in the queue length.
func (s TaskStatus) IsActive() bool {
	return s == TaskPending || s == TaskRunning
}

// String returns the string representation.
func (s TaskStatus) String() string {
	return string(s)
}

// Task is a unit of deferred command execution.
type Task struct {
	// ID is unique within the process lifetime and never reused.
	ID string `json:"id"`

	// Seq orders tasks created within the same instant.
	Seq uint64 `json:"-"`

	// Command is the command name handed to the host.
	Command string `json:"command"`

	// Arguments are passed to the host untouched.
	Arguments []any `json:"arguments"`

	// Delay must elapse after CreatedAt before the task may start.
	Delay time.Duration `json:"-"`

	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Result is set only when Status is TaskCompleted.
	Result any `json:"result,omitempty"`

	// Error is set only when Status is TaskFailed.
	Error string `json:"error,omitempty"`
}

// MarshalJSON encodes the task with its delay in milliseconds.
func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return json.Marshal(struct {
		plain
		DelayMs int64 `json:"delayMs"`
	}{plain: plain(t), DelayMs: t.Delay.Milliseconds()})
}

// EligibleAt returns the earliest time the task may start.
func (t *Task) EligibleAt() time.Time {
	return t.CreatedAt.Add(t.Delay)
}

// IsEligible reports whether the delay has elapsed at now.
func (t *Task) IsEligible(now time.Time) bool {
	return !now.Before(t.EligibleAt())
}

// Clone returns a copy that shares no mutable state with t.
// Arguments and Result are opaque and copied shallowly.
func (t *Task) Clone() *Task {
	c := *t
	if t.Arguments != nil {
		c.Arguments = append([]any(nil), t.Arguments...)
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		c.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	return &c
}

// Start moves a pending task to running.
func (t *Task) Start(now time.Time) error {
	if t.Status != TaskPending {
		return ErrInvalidTransition
	}
	t.Status = TaskRunning
	t.StartedAt = &now
	return nil
}

// Complete records a successful result on a running task.
func (t *Task) Complete(now time.Time, result any) error {
	if t.Status != TaskRunning {
		return ErrInvalidTransition
	}
	t.Status = TaskCompleted
	t.CompletedAt = &now
	t.Result = result
	return nil
}

// Fail records an error message on a running task.
func (t *Task) Fail(now time.Time, message string) error {
	if t.Status != TaskRunning {
		return ErrInvalidTransition
	}
	if message == "" {
		message = "command failed"
	}
	t.Status = TaskFailed
	t.CompletedAt = &now
	t.Error = message
	return nil
}

// Cancel marks a pending or running task as cancelled.
func (t *Task) Cancel(now time.Time) error {
	if !t.Status.IsActive() {
		return ErrInvalidTransition
	}
	t.Status = TaskCancelled
	t.CompletedAt = &now
	return nil
}

// TaskStats aggregates task counts by status.
// The five status counts always sum to Total.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Add counts one task with the given status.
func (s *TaskStats) Add(status TaskStatus) {
	s.Total++
	switch status {
	case TaskPending:
		s.Pending++
	case TaskRunning:
		s.Running++
	case TaskCompleted:
		s.Completed++
	case TaskFailed:
		s.Failed++
	case TaskCancelled:
		s.Cancelled++
	}
}

// QueueLength returns the number of pending and running tasks.
func (s TaskStats) QueueLength() int {
	return s.Pending + s.Running
}

// ComputeStats counts the given tasks by status.
func ComputeStats(tasks []Task) TaskStats {
	var stats TaskStats
	for i := range tasks {
		stats.Add(tasks[i].Status)
	}
	return stats
}
