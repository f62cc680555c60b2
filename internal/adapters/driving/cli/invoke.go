package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

var (
	invokeCommand string
	invokeArgs    []string
	invokeJSON    bool
	invokeTimeout time.Duration
	invokePoll    = 100 * time.Millisecond
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool>",
	Short: "Run a tool once without a client",
	Long: `Invoke a tool locally through the same dispatcher MCP clients use.

Tools: execute_command, list_commands, get_workspace_info.

When execution is asynchronous the command is queued as a background
task; invoke waits for it to finish and prints its progress to stderr.

Examples:
  cmdbridge invoke list_commands
  cmdbridge invoke execute_command --command git.status
  cmdbridge invoke execute_command -c make.test -a ./... -a -race`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeCommand, "command", "c", "", "command name for execute_command")
	invokeCmd.Flags().StringArrayVarP(&invokeArgs, "arg", "a", nil, "command argument (repeatable)")
	invokeCmd.Flags().BoolVar(&invokeJSON, "json", false, "output the raw result as JSON")
	invokeCmd.Flags().DurationVar(&invokeTimeout, "timeout", 5*time.Minute, "how long to wait for a background task")
	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	if dispatcher == nil {
		return errors.New("dispatcher not configured")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Queued tasks only make progress while the scheduler runs.
	if scheduler != nil {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				logger.Error("scheduler: %v", err)
			}
		}()
		defer scheduler.Stop() //nolint:errcheck
	}

	result := dispatcher.Invoke(ctx, args[0], invokeParams(cmd))

	payload := result.CommandPayload
	if result.Success && payload != nil && payload.Async && payload.TaskID != "" && taskService != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), payload.Message)
		task, err := waitForTask(ctx, cmd.ErrOrStderr(), payload.TaskID)
		if err != nil {
			return err
		}
		return printTask(cmd.OutOrStdout(), task)
	}

	return printResult(cmd.OutOrStdout(), result)
}

// invokeParams builds dispatcher params from flags. Flags left unset are
// omitted so the dispatcher sees a missing parameter.
func invokeParams(cmd *cobra.Command) map[string]any {
	params := make(map[string]any)
	if cmd.Flags().Changed("command") {
		params["command"] = invokeCommand
	}
	if len(invokeArgs) > 0 {
		arguments := make([]any, len(invokeArgs))
		for i, a := range invokeArgs {
			arguments[i] = a
		}
		params["arguments"] = arguments
	}
	return params
}

// waitForTask polls until the task reaches a terminal status, reporting
// each status change to progress. On timeout the task is cancelled.
func waitForTask(ctx context.Context, progress io.Writer, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	ticker := time.NewTicker(invokePoll)
	defer ticker.Stop()

	start := time.Now()
	var last domain.TaskStatus

	for {
		task, err := taskService.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}

		if task.Status != last {
			fmt.Fprintf(progress, "[%6s] %s %s\n",
				time.Since(start).Round(time.Millisecond), id, task.Status)
			last = task.Status
		}
		if task.Status.IsTerminal() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			taskService.Cancel(context.WithoutCancel(ctx), id)
			return nil, fmt.Errorf("waiting for task %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func printTask(w io.Writer, task *domain.Task) error {
	if invokeJSON {
		if err := writeJSON(w, task); err != nil {
			return err
		}
	}

	switch task.Status {
	case domain.TaskCompleted:
		if !invokeJSON {
			return writeValue(w, task.Result)
		}
		return nil
	case domain.TaskFailed:
		return fmt.Errorf("task %s failed: %s", task.ID, task.Error)
	default:
		return fmt.Errorf("task %s was %s", task.ID, task.Status)
	}
}

func printResult(w io.Writer, result domain.ToolResult) error {
	if invokeJSON {
		if err := writeJSON(w, result); err != nil {
			return err
		}
	} else if result.Success {
		if err := writeHuman(w, result); err != nil {
			return err
		}
	}

	if !result.Success {
		return fmt.Errorf("%s: %s", result.Reason, result.Error)
	}
	return nil
}

func writeHuman(w io.Writer, result domain.ToolResult) error {
	switch {
	case result.CommandPayload != nil:
		return writeValue(w, result.CommandPayload.HostResult())

	case result.CommandListPayload != nil:
		list := result.CommandListPayload
		for _, name := range list.Commands {
			fmt.Fprintln(w, name)
		}
		if list.Truncated {
			fmt.Fprintf(w, "(showing %d of %d)\n", len(list.Commands), list.Total)
		}
		return nil

	case result.WorkspacePayload != nil:
		ws := result.WorkspacePayload
		fmt.Fprintf(w, "Workspace:   %s\n", ws.WorkspaceName)
		fmt.Fprintf(w, "Active file: %s\n", ws.ActiveFile)
		if len(ws.Folders) > 0 {
			fmt.Fprintln(w, "Folders:")
			for _, f := range ws.Folders {
				fmt.Fprintf(w, "  %s  %s\n", f.Name, f.Path)
			}
		}
		return nil
	}
	return nil
}

// writeValue prints strings as-is and anything else as JSON.
func writeValue(w io.Writer, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprint(w, val)
		return err
	default:
		return writeJSON(w, val)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
