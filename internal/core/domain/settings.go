package domain

import (
	"fmt"
	"time"
)

// Default execution settings.
const (
	DefaultAsyncExecution = true
	DefaultExecutionDelay = 0 * time.Millisecond
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultSubmitBurst    = 1
)

// ExecutionMode describes how the gateway runs a command.
type ExecutionMode string

// Available execution modes.
const (
	// ExecutionSync awaits the host directly.
	ExecutionSync ExecutionMode = "sync"

	// ExecutionAsync queues a background task and returns immediately.
	ExecutionAsync ExecutionMode = "async"
)

// String returns the string representation.
func (m ExecutionMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m ExecutionMode) Description() string {
	switch m {
	case ExecutionSync:
		return "Synchronous (caller waits for the command)"
	case ExecutionAsync:
		return "Asynchronous (queued background task)"
	default:
		return "Unknown"
	}
}

// ExecutionSettings is an immutable snapshot of the configuration the
// core consumes. A refresh replaces the whole snapshot.
type ExecutionSettings struct {
	// AllowedCommands gates which commands may run. Empty permits all.
	AllowedCommands AllowList

	// AsyncExecution queues commands as background tasks when true.
	AsyncExecution bool

	// ExecutionDelay is applied to every new background task.
	ExecutionDelay time.Duration

	// ShowCompletionNotifications raises a notification on task success.
	// Failures are always notified.
	ShowCompletionNotifications bool

	// SubmitRateLimit caps execute requests per second. Zero disables it.
	SubmitRateLimit float64

	// SubmitBurst is the rate limiter bucket size.
	SubmitBurst int

	// PollInterval bounds how long the scheduler sleeps between passes.
	PollInterval time.Duration
}

// Mode returns the execution mode the settings select.
func (s ExecutionSettings) Mode() ExecutionMode {
	if s.AsyncExecution {
		return ExecutionAsync
	}
	return ExecutionSync
}

// Validate reports the first out-of-range value.
func (s ExecutionSettings) Validate() error {
	if s.ExecutionDelay < 0 {
		return fmt.Errorf("%w: execution delay must not be negative", ErrInvalidInput)
	}
	if s.SubmitRateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidInput)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidInput)
	}
	return nil
}

// DefaultExecutionSettings returns settings with sensible defaults.
// The allow-list starts empty, which permits every command.
func DefaultExecutionSettings() ExecutionSettings {
	return ExecutionSettings{
		AllowedCommands: AllowList{},
		AsyncExecution:  DefaultAsyncExecution,
		ExecutionDelay:  DefaultExecutionDelay,
		SubmitBurst:     DefaultSubmitBurst,
		PollInterval:    DefaultPollInterval,
	}
}

// RefreshReport summarises what applying a new settings snapshot changed.
type RefreshReport struct {
	// ModeChanged is true if async execution was switched on or off.
	ModeChanged bool

	// AllowListChanged is true if the allowed command patterns differ.
	AllowListChanged bool

	// PurgedTaskIDs lists pending tasks cancelled and removed by the refresh.
	PurgedTaskIDs []string
}

// Purged returns the number of tasks the refresh removed.
func (r RefreshReport) Purged() int {
	return len(r.PurgedTaskIDs)
}
