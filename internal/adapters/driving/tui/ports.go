// Package tui provides an interactive terminal monitor for background
// tasks. It implements a driving adapter over driving.TaskService.
package tui

import (
	"context"
	"time"

	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
)

// DefaultRefreshInterval is how often the task list is reloaded.
const DefaultRefreshInterval = time.Second

// ConfigReloader asks a server to reload its configuration and reports
// how many pending tasks the new settings purged.
type ConfigReloader interface {
	ReloadConfig(ctx context.Context) (int, error)
}

// Ports aggregates the services the monitor needs.
type Ports struct {
	// Tasks is the task query surface. Required.
	Tasks driving.TaskService

	// Config reloads server configuration. Optional.
	Config ConfigReloader

	// RefreshInterval overrides DefaultRefreshInterval when positive.
	RefreshInterval time.Duration
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Tasks == nil {
		return ErrMissingTaskService
	}
	return nil
}

func (p *Ports) interval() time.Duration {
	if p.RefreshInterval > 0 {
		return p.RefreshInterval
	}
	return DefaultRefreshInterval
}
