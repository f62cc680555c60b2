package driving

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// CommandGateway decides per invocation whether a command runs
// synchronously or is queued as a background task.
type CommandGateway interface {
	// Submit executes or queues command.
	// Returns domain.ErrNotAllowed if the allow-list rejects it,
	// domain.ErrRateLimited if submissions exceed the configured rate,
	// or an error wrapping domain.ErrHostExecution if a synchronous
	// host call fails.
	Submit(ctx context.Context, command string, args []any) (*domain.ExecutionOutcome, error)

	// IsAllowed reports whether the current allow-list permits command.
	IsAllowed(command string) bool

	// Settings returns the current settings snapshot.
	Settings() domain.ExecutionSettings

	// Apply installs a new settings snapshot, purging pending tasks the
	// new settings no longer admit.
	Apply(ctx context.Context, settings domain.ExecutionSettings) domain.RefreshReport
}
