// Package domain defines the core business entities for cmdbridge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Task: A queued, delayed, trackable execution of one command
//   - AllowList: The patterns gating which commands may run
//   - ExecutionSettings: The configuration snapshot the core consumes
//   - ToolResult: The uniform payload returned for every tool invocation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
