package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective execution settings",
	Long:  `Print the settings built from config.toml after defaults and clamping.`,
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	if configPath != "" {
		cmd.Printf("  File: %s\n", configPath)
	}
	cmd.Println()

	cmd.Println("[Execution]")
	cmd.Printf("  Mode: %s\n", settings.Mode().Description())
	cmd.Printf("  Delay: %s\n", settings.ExecutionDelay)
	allowed := "(all commands)"
	if !settings.AllowedCommands.IsEmpty() {
		allowed = strings.Join(settings.AllowedCommands, ", ")
	}
	cmd.Printf("  Allowed: %s\n", allowed)
	cmd.Printf("  Completion notifications: %t\n", settings.ShowCompletionNotifications)
	if settings.SubmitRateLimit > 0 {
		cmd.Printf("  Rate limit: %g/s (burst %d)\n", settings.SubmitRateLimit, settings.SubmitBurst)
	} else {
		cmd.Println("  Rate limit: off")
	}
	cmd.Println()

	cmd.Println("[Scheduler]")
	cmd.Printf("  Poll interval: %s\n", settings.PollInterval)
	return nil
}
