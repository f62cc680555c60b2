package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List configured host commands",
	Long: `List every command the host is configured to run and whether the
current allow-list permits it. An empty allow-list permits everything.`,
	Args: cobra.NoArgs,
	RunE: runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, _ []string) error {
	if commandHost == nil {
		return errors.New("command host not configured")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	names, err := commandHost.ListCommands(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing commands: %w", err)
	}

	if len(names) == 0 {
		cmd.Println("No commands configured.")
		cmd.Println("Add [[host.commands]] tables to your config.toml.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tALLOWED")
	for _, name := range names {
		allowed := "no"
		if settings.AllowedCommands.Allows(name) {
			allowed = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, allowed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if settings.AllowedCommands.IsEmpty() {
		cmd.Println()
		cmd.Println("Allow-list is empty: every command is permitted.")
	}
	return nil
}
