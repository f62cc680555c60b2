package driving

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// Dispatcher is the single entry point for protocol front-ends.
type Dispatcher interface {
	// Invoke runs the named tool with loosely typed params.
	// It never returns an error: every failure is reported in the result.
	Invoke(ctx context.Context, tool string, params map[string]any) domain.ToolResult
}
