// Package messages defines Bubbletea message types for the task monitor.
// Messages represent events that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewTasks is the task list.
	ViewTasks ViewType = iota
	// ViewDetail shows a single task.
	ViewDetail
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewTasks:
		return "tasks"
	case ViewDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Tick triggers a periodic reload.
type Tick struct{}

// TasksLoaded carries a fresh snapshot of the task list.
type TasksLoaded struct {
	Tasks []domain.Task
	Stats domain.TaskStats
	Err   error
}

// TaskCancelled reports the outcome of a cancel request.
type TaskCancelled struct {
	ID        string
	Cancelled bool
}

// TasksCleared reports how many finished tasks were removed.
type TasksCleared struct {
	Removed int
}

// ConfigReloaded reports the outcome of a configuration reload.
type ConfigReloaded struct {
	Purged int
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
