// Command cmdbridge serves allow-listed host commands to MCP clients.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/host"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/notify"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/cli"
	"github.com/custodia-labs/cmdbridge/internal/core/services"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBuilder(build)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

// build wires the application for configDir.
func build(configDir string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("config: %s", configStore.Path())

	commandHost := host.New(configStore)
	notifications := notify.NewFanout(notify.LogNotifier{})

	scheduler := services.NewScheduler(memory.NewTaskStore(), commandHost, notifications)

	settings, err := services.NewSettingsService(configStore, nil).Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	gateway := services.NewGateway(scheduler, commandHost, notifications, *settings)
	settingsService := services.NewSettingsService(configStore, gateway)

	watcher := file.NewWatcher(configStore.Path(), func(ctx context.Context) error {
		report, err := settingsService.Refresh(ctx)
		if err != nil {
			return err
		}
		logger.Info("settings: reloaded (mode changed: %t, allow-list changed: %t, purged: %d)",
			report.ModeChanged, report.AllowListChanged, report.Purged())
		return nil
	})

	return &cli.Services{
		Dispatcher:    services.NewDispatcher(gateway, commandHost),
		Tasks:         scheduler,
		Settings:      settingsService,
		Scheduler:     scheduler,
		Host:          commandHost,
		Notifications: notifications,
		ConfigWatcher: watcher,
		ConfigPath:    configStore.Path(),
	}, nil
}
