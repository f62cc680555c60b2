package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.Dispatcher = (*Dispatcher)(nil)

// Tool parameter names.
const (
	paramCommand   = "command"
	paramArguments = "arguments"
)

// Dispatcher routes tool invocations to the gateway and the host.
// Every outcome, including panics, is returned as a ToolResult.
type Dispatcher struct {
	gateway driving.CommandGateway
	host    driven.CommandHost
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(gateway driving.CommandGateway, host driven.CommandHost) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		host:    host,
	}
}

// CanonicalTool maps a tool name or its hyphenated alias to the
// canonical name. Unknown names are returned unchanged.
func CanonicalTool(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

// Invoke runs the named tool.
func (d *Dispatcher) Invoke(ctx context.Context, tool string, params map[string]any) (result domain.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatcher: %s panicked: %v", tool, r)
			result = domain.Failure(fmt.Errorf("%s: unexpected failure: %v", tool, r))
		}
	}()

	switch CanonicalTool(tool) {
	case domain.ToolExecuteCommand:
		return d.executeCommand(ctx, params)
	case domain.ToolListCommands:
		return d.listCommands(ctx)
	case domain.ToolGetWorkspaceInfo:
		return d.workspaceInfo(ctx)
	default:
		return domain.Failure(fmt.Errorf("%w: %q", domain.ErrUnknownTool, tool))
	}
}

func (d *Dispatcher) executeCommand(ctx context.Context, params map[string]any) domain.ToolResult {
	payload := &domain.CommandPayload{
		Async:     d.gateway.Settings().AsyncExecution,
		Arguments: []any{},
	}

	command, err := commandParam(params)
	if err != nil {
		return withCommand(domain.Failure(err), payload)
	}
	payload.Command = command

	args, err := argumentsParam(params)
	if err != nil {
		return withCommand(domain.Failure(err), payload)
	}
	payload.Arguments = args

	outcome, err := d.gateway.Submit(ctx, command, args)
	if err != nil {
		logger.Debug("dispatcher: %s failed: %v", command, err)
		return withCommand(domain.Failure(err), payload)
	}

	payload.Async = outcome.IsAsync()
	if outcome.IsAsync() {
		queueLength := outcome.QueueLength
		stats := outcome.Stats
		payload.TaskID = outcome.Task.ID
		payload.Message = outcome.Message
		payload.QueueLength = &queueLength
		payload.TaskStats = &stats
	} else {
		payload.SyncOutput = &domain.SyncOutput{Result: outcome.Result}
	}

	return domain.ToolResult{Success: true, CommandPayload: payload}
}

func withCommand(result domain.ToolResult, payload *domain.CommandPayload) domain.ToolResult {
	result.CommandPayload = payload
	return result
}

// commandParam extracts the required command name.
func commandParam(params map[string]any) (string, error) {
	raw, ok := params[paramCommand]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", domain.ErrMissingParameter, paramCommand)
	}
	command, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidParameter, paramCommand, raw)
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return "", fmt.Errorf("%w: %s must not be empty", domain.ErrMissingParameter, paramCommand)
	}
	return command, nil
}

// argumentsParam extracts the optional argument list.
func argumentsParam(params map[string]any) ([]any, error) {
	raw, ok := params[paramArguments]
	if !ok || raw == nil {
		return []any{}, nil
	}
	switch v := raw.(type) {
	case []any:
		return v, nil
	case []string:
		args := make([]any, len(v))
		for i, s := range v {
			args[i] = s
		}
		return args, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an array, got %T", domain.ErrInvalidParameter, paramArguments, raw)
	}
}

func (d *Dispatcher) listCommands(ctx context.Context) domain.ToolResult {
	if d.host == nil {
		return domain.Failure(fmt.Errorf("%w: no command host configured", domain.ErrHostExecution))
	}

	commands, err := d.host.ListCommands(ctx)
	if err != nil {
		return domain.Failure(fmt.Errorf("%w: list commands: %v", domain.ErrHostExecution, err))
	}

	allowed := d.gateway.Settings().AllowedCommands
	filtered := !allowed.IsEmpty()
	if filtered {
		commands = allowed.Filter(commands)
	}

	slices.Sort(commands)
	commands = slices.Compact(commands)

	total := len(commands)
	preview := commands
	if total > domain.ListPreviewLimit {
		preview = commands[:domain.ListPreviewLimit]
	}
	if preview == nil {
		preview = []string{}
	}

	return domain.ToolResult{
		Success: true,
		CommandListPayload: &domain.CommandListPayload{
			Commands:  preview,
			Total:     total,
			Truncated: total > len(preview),
			Filtered:  filtered,
		},
	}
}

func (d *Dispatcher) workspaceInfo(ctx context.Context) domain.ToolResult {
	payload := &domain.WorkspacePayload{
		WorkspaceName: domain.Unavailable,
		Folders:       []domain.WorkspaceFolder{},
		ActiveFile:    domain.Unavailable,
	}

	if d.host == nil {
		return domain.ToolResult{Success: true, WorkspacePayload: payload}
	}

	info, err := d.host.WorkspaceInfo(ctx)
	switch {
	case errors.Is(err, domain.ErrNoActiveContext):
		return domain.ToolResult{Success: true, WorkspacePayload: payload}
	case err != nil:
		return domain.Failure(fmt.Errorf("%w: workspace info: %v", domain.ErrHostExecution, err))
	case info == nil:
		return domain.ToolResult{Success: true, WorkspacePayload: payload}
	}

	if info.Name != "" {
		payload.WorkspaceName = info.Name
	}
	if info.ActiveFile != "" {
		payload.ActiveFile = info.ActiveFile
	}
	if len(info.Folders) > 0 {
		payload.Folders = info.Folders
	}

	return domain.ToolResult{Success: true, WorkspacePayload: payload}
}
