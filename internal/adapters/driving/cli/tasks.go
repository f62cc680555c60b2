package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/remote"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/tui"
	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

var (
	tasksAddr  string
	tasksPlain bool
	tasksAll   bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Monitor background tasks of a running server",
	Long: `Connect to the admin API of "cmdbridge serve --port" and show its
background tasks. On a terminal this opens an interactive monitor;
otherwise, or with --plain, a table is printed once.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runTasks,
}

var tasksCancelCmd = &cobra.Command{
	Use:         "cancel <task-id>",
	Short:       "Cancel a pending or running task",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runTasksCancel,
}

var tasksClearCmd = &cobra.Command{
	Use:         "clear",
	Short:       "Remove finished tasks",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runTasksClear,
}

var tasksReloadCmd = &cobra.Command{
	Use:         "reload",
	Short:       "Ask the server to reload its configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runTasksReload,
}

func init() {
	tasksCmd.PersistentFlags().StringVar(&tasksAddr, "addr", remote.DefaultBaseURL, "admin API address")
	tasksCmd.Flags().BoolVar(&tasksPlain, "plain", false, "print a table instead of the interactive monitor")
	tasksClearCmd.Flags().BoolVar(&tasksAll, "all", false, "remove every task, including pending and running ones")

	tasksCmd.AddCommand(tasksCancelCmd, tasksClearCmd, tasksReloadCmd)
	rootCmd.AddCommand(tasksCmd)
}

// configReloader adapts the admin client to tui.ConfigReloader.
type configReloader struct {
	client *remote.Client
}

func (r configReloader) ReloadConfig(ctx context.Context) (int, error) {
	result, err := r.client.RefreshConfig(ctx)
	if err != nil {
		return 0, err
	}
	return len(result.PurgedTaskIDs), nil
}

func newTasksClient() *remote.Client {
	return remote.NewClient(remote.Config{BaseURL: tasksAddr})
}

func runTasks(cmd *cobra.Command, _ []string) error {
	client := newTasksClient()

	if !tasksPlain && isTerminal(cmd.OutOrStdout()) {
		app, err := tui.NewApp(&tui.Ports{
			Tasks:  client,
			Config: configReloader{client: client},
		})
		if err != nil {
			return err
		}
		return app.Run(cmd.Context())
	}

	tasks, err := client.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing tasks from %s: %w", client.BaseURL(), err)
	}
	return printTaskTable(cmd.OutOrStdout(), tasks, time.Now())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printTaskTable(out io.Writer, tasks []domain.Task, now time.Time) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(out, "No background tasks.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMMAND\tSTATUS\tCREATED")
	for _, t := range tasks {
		created := humanize.RelTime(t.CreatedAt, now, "ago", "from now")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Command, t.Status, created)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats := domain.ComputeStats(tasks)
	_, err := fmt.Fprintf(out, "\n%d tasks: %d pending, %d running, %d completed, %d failed, %d cancelled\n",
		stats.Total, stats.Pending, stats.Running, stats.Completed, stats.Failed, stats.Cancelled)
	return err
}

func runTasksCancel(cmd *cobra.Command, args []string) error {
	client := newTasksClient()
	id := args[0]

	if _, err := client.Get(cmd.Context(), id); err != nil {
		return fmt.Errorf("task %s: %w", id, err)
	}
	if !client.Cancel(cmd.Context(), id) {
		return fmt.Errorf("task %s is not pending or running", id)
	}

	cmd.Printf("Cancelled %s\n", id)
	return nil
}

func runTasksClear(cmd *cobra.Command, _ []string) error {
	client := newTasksClient()

	var removed int
	if tasksAll {
		removed = client.ClearAll(cmd.Context())
	} else {
		removed = client.ClearCompleted(cmd.Context())
	}

	cmd.Printf("Removed %d task(s)\n", removed)
	return nil
}

func runTasksReload(cmd *cobra.Command, _ []string) error {
	client := newTasksClient()

	result, err := client.RefreshConfig(cmd.Context())
	if err != nil {
		return fmt.Errorf("reloading configuration on %s: %w", client.BaseURL(), err)
	}

	cmd.Println("Configuration reloaded.")
	if result.ModeChanged {
		cmd.Println("Execution mode changed.")
	}
	if result.AllowListChanged {
		cmd.Println("Allow-list changed.")
	}
	if n := len(result.PurgedTaskIDs); n > 0 {
		cmd.Printf("Purged %d pending task(s): %v\n", n, result.PurgedTaskIDs)
	}
	return nil
}
