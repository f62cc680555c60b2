// Package driving defines the interfaces that MCP clients, the CLI, the
// admin API and the task monitor use to reach the core: tool dispatch,
// the execution gateway, task queries and settings.
//
// Implementations live in internal/core/services.
package driving
