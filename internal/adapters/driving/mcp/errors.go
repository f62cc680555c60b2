// Package mcp provides an MCP (Model Context Protocol) server adapter for cmdbridge.
// It exposes the command tools to AI assistants and streams task
// notifications back to connected clients as log messages.
package mcp

import "errors"

// ErrMissingDispatcher is returned when the dispatcher is not provided.
var ErrMissingDispatcher = errors.New("mcp: dispatcher is required")
