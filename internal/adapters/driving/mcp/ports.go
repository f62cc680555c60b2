package mcp

import (
	"net/http"

	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Dispatcher runs tool invocations.
	Dispatcher driving.Dispatcher

	// Tasks backs the task resources. Optional.
	Tasks driving.TaskService

	// Admin is mounted under /admin/ in HTTP mode. Optional.
	Admin http.Handler
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Dispatcher == nil {
		return ErrMissingDispatcher
	}
	return nil
}
