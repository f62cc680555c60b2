package domain

// Tool names recognised by the dispatcher.
const (
	ToolExecuteCommand   = "execute_command"
	ToolListCommands     = "list_commands"
	ToolGetWorkspaceInfo = "get_workspace_info"
)

// ListPreviewLimit caps the number of command names list_commands returns.
const ListPreviewLimit = 20

// ExecutionOutcome is what the gateway returns for an accepted command.
// Exactly one of the sync or async field groups is meaningful.
type ExecutionOutcome struct {
	// Mode tells which path ran.
	Mode ExecutionMode

	// Result is the host's raw result on the sync path.
	Result any

	// Task is a snapshot of the queued task on the async path.
	Task *Task

	// Message is a human-readable acknowledgement on the async path.
	Message string

	// QueueLength counts pending and running tasks after submission.
	QueueLength int

	// Stats is a snapshot of aggregate task statistics after submission.
	Stats TaskStats
}

// IsAsync returns true if the command was queued.
func (o *ExecutionOutcome) IsAsync() bool {
	return o.Mode == ExecutionAsync
}

// ToolResult is the uniform payload the dispatcher returns for every tool.
// Success and, on failure, Error and Reason are always set; the embedded
// payload for the tool that ran is inlined when JSON-encoded.
type ToolResult struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Reason  FailureReason `json:"reason,omitempty"`

	*CommandPayload
	*CommandListPayload
	*WorkspacePayload
}

// CommandPayload carries the execute_command fields.
type CommandPayload struct {
	Async     bool   `json:"async"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments"`

	// SyncOutput is set only when the command ran synchronously.
	*SyncOutput

	TaskID      string     `json:"taskId,omitempty"`
	Message     string     `json:"message,omitempty"`
	QueueLength *int       `json:"queueLength,omitempty"`
	TaskStats   *TaskStats `json:"taskStats,omitempty"`
}

// SyncOutput holds the host's result of a synchronous run. The result key
// is always encoded, as null when the host returned nothing.
type SyncOutput struct {
	Result any `json:"result"`
}

// HostResult returns the synchronous result, or nil if the command was
// queued or never ran.
func (p *CommandPayload) HostResult() any {
	if p == nil || p.SyncOutput == nil {
		return nil
	}
	return p.SyncOutput.Result
}

// CommandListPayload carries the list_commands fields.
type CommandListPayload struct {
	Commands  []string `json:"commands"`
	Total     int      `json:"total"`
	Truncated bool     `json:"truncated"`
	Filtered  bool     `json:"filtered"`
}

// WorkspacePayload carries the get_workspace_info fields.
type WorkspacePayload struct {
	WorkspaceName string            `json:"workspaceName"`
	Folders       []WorkspaceFolder `json:"folders"`
	ActiveFile    string            `json:"activeFile"`
}

// Failure builds a failed result from err.
func Failure(err error) ToolResult {
	return ToolResult{
		Success: false,
		Error:   err.Error(),
		Reason:  ReasonFor(err),
	}
}
