package domain

// Unavailable is reported in place of workspace data the host cannot supply.
const Unavailable = "unavailable"

// WorkspaceFolder is one root folder of the host workspace.
type WorkspaceFolder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// WorkspaceInfo describes the host's workspace context.
type WorkspaceInfo struct {
	// Name is the workspace name. Empty when the host has none.
	Name string

	// Folders are the workspace root folders.
	Folders []WorkspaceFolder

	// ActiveFile is the file currently in focus. Empty when nothing is open.
	ActiveFile string
}
