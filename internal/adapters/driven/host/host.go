package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure Host implements the interface.
var _ driven.CommandHost = (*Host)(nil)

// Config keys read by the host.
const (
	keyCommands         = "host.commands"
	keyMaxOutputBytes   = "host.max_output_bytes"
	keyWorkspaceName    = "workspace.name"
	keyWorkspaceFolders = "workspace.folders"
	keyActiveFile       = "workspace.active_file"
)

// waitDelay bounds how long a cancelled process may hold its output pipes.
const waitDelay = 2 * time.Second

// DefaultMaxOutputBytes caps the stdout and stderr kept per command.
const DefaultMaxOutputBytes = 1 << 20

// CommandSpec describes one runnable command.
type CommandSpec struct {
	Name        string
	Run         []string
	Description string
	Dir         string
}

// Result is what a successful command returns.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode"`

	// Truncated is set when output beyond the cap was discarded.
	Truncated bool `json:"truncated,omitempty"`
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.Code, e.Stderr)
}

// Host runs commands declared in configuration as local processes.
type Host struct {
	config driven.ConfigStore
	getwd  func() (string, error)
}

// New creates a host reading its command table from config.
func New(config driven.ConfigStore) *Host {
	return &Host{
		config: config,
		getwd:  os.Getwd,
	}
}

// Commands returns the configured command table, sorted by name.
// Malformed entries are skipped with a warning.
func (h *Host) Commands() []CommandSpec {
	raw, ok := h.config.Get(keyCommands)
	if !ok {
		return nil
	}

	entries, ok := raw.([]any)
	if !ok {
		logger.Warn("host: %s must be an array of tables", keyCommands)
		return nil
	}

	specs := make([]CommandSpec, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		spec, err := parseSpec(entry)
		if err != nil {
			logger.Warn("host: skipping %s[%d]: %v", keyCommands, i, err)
			continue
		}
		if seen[spec.Name] {
			logger.Warn("host: duplicate command %q, keeping the first", spec.Name)
			continue
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func parseSpec(entry any) (CommandSpec, error) {
	table, ok := entry.(map[string]any)
	if !ok {
		return CommandSpec{}, errors.New("not a table")
	}

	name, _ := table["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return CommandSpec{}, errors.New("missing name")
	}

	run, err := parseRun(table["run"])
	if err != nil || len(run) == 0 {
		return CommandSpec{}, fmt.Errorf("%s: run must be a command line or a non-empty array of strings", name)
	}

	description, _ := table["description"].(string)
	dir, _ := table["dir"].(string)

	return CommandSpec{
		Name:        name,
		Run:         run,
		Description: description,
		Dir:         expandHome(dir),
	}, nil
}

// parseRun accepts either an array of words or a single command line, which
// is split with shell quoting rules but never run through a shell.
func parseRun(v any) ([]string, error) {
	switch items := v.(type) {
	case string:
		return shellquote.Split(items)
	case []string:
		return items, nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// lookup finds a command by name.
func (h *Host) lookup(name string) (CommandSpec, bool) {
	for _, spec := range h.Commands() {
		if spec.Name == name {
			return spec, true
		}
	}
	return CommandSpec{}, false
}

// ListCommands returns the names of all configured commands.
func (h *Host) ListCommands(_ context.Context) ([]string, error) {
	specs := h.Commands()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names, nil
}

// Execute runs the named command with args appended to its run vector.
// A non-zero exit is returned as an *ExitError.
func (h *Host) Execute(ctx context.Context, name string, args []any) (any, error) {
	spec, ok := h.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, name)
	}

	argv := append([]string(nil), spec.Run...)
	for _, arg := range args {
		argv = append(argv, formatArg(arg))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = waitDelay

	limit := h.maxOutputBytes()
	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("host: running %s: %s", name, strings.Join(argv, " "))
	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &ExitError{
			Command: name,
			Code:    exitErr.ExitCode(),
			Stderr:  strings.TrimSpace(stderr.String()),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	return Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  0,
		Truncated: stdout.truncated || stderr.truncated,
	}, nil
}

// maxOutputBytes reads the output cap from config. Missing or non-positive
// values use DefaultMaxOutputBytes.
func (h *Host) maxOutputBytes() int {
	if n := h.config.GetInt(keyMaxOutputBytes); n > 0 {
		return n
	}
	return DefaultMaxOutputBytes
}

// cappedBuffer keeps the first limit bytes written to it and discards the
// rest. Writes never fail, so the process is not blocked or killed.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

// formatArg renders a tool argument as a command-line word.
func formatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// WorkspaceInfo describes the workspace from configuration, falling back
// to the working directory. Returns domain.ErrNoActiveContext if neither
// is available.
func (h *Host) WorkspaceInfo(_ context.Context) (*domain.WorkspaceInfo, error) {
	info := &domain.WorkspaceInfo{
		Name:       h.config.GetString(keyWorkspaceName),
		ActiveFile: expandHome(h.config.GetString(keyActiveFile)),
	}

	for _, path := range h.config.GetStringSlice(keyWorkspaceFolders) {
		path = expandHome(path)
		info.Folders = append(info.Folders, domain.WorkspaceFolder{
			Name: filepath.Base(path),
			Path: path,
		})
	}

	if len(info.Folders) == 0 {
		if wd, err := h.getwd(); err == nil {
			info.Folders = []domain.WorkspaceFolder{{Name: filepath.Base(wd), Path: wd}}
		}
	}

	if info.Name == "" && len(info.Folders) > 0 {
		info.Name = info.Folders[0].Name
	}

	if info.Name == "" && len(info.Folders) == 0 && info.ActiveFile == "" {
		return nil, domain.ErrNoActiveContext
	}
	return info, nil
}
