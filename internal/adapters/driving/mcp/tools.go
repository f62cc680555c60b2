package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// ExecuteCommandInput is the input schema for the execute_command tool.
// Command is optional in the schema so that a missing value is reported
// as a tool failure rather than a protocol error.
type ExecuteCommandInput struct {
	Command   string `json:"command,omitempty" jsonschema:"the name of the command to execute"`
	Arguments any    `json:"arguments,omitempty" jsonschema:"optional array of arguments passed to the command"`
}

// ListCommandsInput is the input schema for the list_commands tool.
type ListCommandsInput struct{}

// WorkspaceInfoInput is the input schema for the get_workspace_info tool.
type WorkspaceInfoInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: domain.ToolExecuteCommand,
		Description: "Execute a host command. Depending on configuration the command " +
			"runs immediately or is queued as a background task whose id is returned",
	}, s.handleExecuteCommand)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        domain.ToolListCommands,
		Description: "List the host commands the allow-list permits",
	}, s.handleListCommands)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        domain.ToolGetWorkspaceInfo,
		Description: "Describe the host workspace: name, folders and active file",
	}, s.handleWorkspaceInfo)
}

// handleExecuteCommand handles the execute_command tool invocation.
func (s *Server) handleExecuteCommand(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExecuteCommandInput,
) (*mcp.CallToolResult, any, error) {
	params := map[string]any{"command": input.Command}
	if input.Arguments != nil {
		params["arguments"] = input.Arguments
	}
	return s.invoke(ctx, domain.ToolExecuteCommand, params)
}

// handleListCommands handles the list_commands tool invocation.
func (s *Server) handleListCommands(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCommandsInput,
) (*mcp.CallToolResult, any, error) {
	return s.invoke(ctx, domain.ToolListCommands, nil)
}

// handleWorkspaceInfo handles the get_workspace_info tool invocation.
func (s *Server) handleWorkspaceInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ WorkspaceInfoInput,
) (*mcp.CallToolResult, any, error) {
	return s.invoke(ctx, domain.ToolGetWorkspaceInfo, nil)
}

// invoke runs a tool through the dispatcher. Failed results are flagged
// with IsError but still carry the structured payload.
func (s *Server) invoke(ctx context.Context, tool string, params map[string]any) (*mcp.CallToolResult, any, error) {
	result := s.ports.Dispatcher.Invoke(ctx, tool, params)
	return &mcp.CallToolResult{IsError: !result.Success}, result, nil
}
