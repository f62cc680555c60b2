// Package cli provides the cobra command tree for cmdbridge.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/notify"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

var version = "dev"

var (
	verbose   bool
	configDir string
)

// Runner is a background component that runs until ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Services holds the wired application the commands operate on.
type Services struct {
	Dispatcher    driving.Dispatcher
	Tasks         driving.TaskService
	Settings      driving.SettingsService
	Scheduler     driving.Scheduler
	Host          driven.CommandHost
	Notifications *notify.Fanout
	ConfigWatcher Runner
	ConfigPath    string
}

// Builder wires Services for a config directory. An empty directory
// selects the default location.
type Builder func(configDir string) (*Services, error)

var builder Builder

// Package-level services, set by SetServices or by tests.
var (
	dispatcher      driving.Dispatcher
	taskService     driving.TaskService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	commandHost     driven.CommandHost
	notifications   *notify.Fanout
	configWatcher   Runner
	configPath      string
)

// SetBuilder registers the function that wires services before any
// command that needs them runs.
func SetBuilder(b Builder) {
	builder = b
}

// SetVersion sets the version reported by "cmdbridge version".
func SetVersion(v string) {
	version = v
}

// SetServices installs already-wired services.
func SetServices(s *Services) {
	dispatcher = s.Dispatcher
	taskService = s.Tasks
	settingsService = s.Settings
	scheduler = s.Scheduler
	commandHost = s.Host
	notifications = s.Notifications
	configWatcher = s.ConfigWatcher
	configPath = s.ConfigPath
}

// skipServices marks commands that run without wiring the application.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "cmdbridge",
	Short: "Run host commands on behalf of MCP clients",
	Long: `cmdbridge exposes a configured set of host commands to Model Context
Protocol clients. Commands are gated by an allow-list and either run
immediately or are queued as background tasks.

Configuration lives in ~/.cmdbridge/config.toml unless --config-dir is given.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.cmdbridge)")
}

// prepare applies global flags and wires services on first use.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipServices] == "true" || builder == nil {
		return nil
	}

	services, err := builder(configDir)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(services)
	builder = nil
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
