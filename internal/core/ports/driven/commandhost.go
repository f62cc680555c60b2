package driven

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// CommandHost is the application capability that actually runs commands.
// The core never inspects how execution happens.
type CommandHost interface {
	// Execute runs the named command with opaque arguments and returns
	// its result. ctx may be cancelled to request a best-effort stop;
	// implementations are free to ignore it.
	Execute(ctx context.Context, name string, args []any) (any, error)

	// ListCommands returns every command name the host knows.
	ListCommands(ctx context.Context) ([]string, error)

	// WorkspaceInfo describes the host's current workspace.
	// Returns domain.ErrNoActiveContext when there is nothing to report.
	WorkspaceInfo(ctx context.Context) (*domain.WorkspaceInfo, error)
}
