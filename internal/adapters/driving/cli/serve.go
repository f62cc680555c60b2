package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/admin"
	"github.com/custodia-labs/cmdbridge/internal/adapters/driving/mcp"
	"github.com/custodia-labs/cmdbridge/internal/core/services"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

var (
	servePort     int
	serveAutoPort bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server.

By default the server communicates over stdio using JSON-RPC. Use --port
to serve streamable HTTP instead, which also mounts the operator API:

  GET  /admin/tasks                 list background tasks
  GET  /admin/tasks/stats           task counts by status
  GET  /admin/tasks/{id}            a single task
  POST /admin/tasks/{id}/cancel     cancel a pending or running task
  POST /admin/tasks/clear?scope=    clear completed or all tasks
  POST /admin/config/refresh        reload config.toml

Examples:
  # Stdio mode
  cmdbridge serve

  # HTTP mode
  cmdbridge serve --port 8080

  # HTTP mode on the first free port from 8080-8099
  cmdbridge serve --auto-port

Client configuration:
  {
    "mcpServers": {
      "cmdbridge": {
        "command": "/path/to/cmdbridge",
        "args": ["serve"]
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().BoolVar(&serveAutoPort, "auto-port", false, "serve HTTP on the first free port from 8080-8099")
	serveCmd.MarkFlagsMutuallyExclusive("port", "auto-port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if dispatcher == nil {
		return errors.New("dispatcher not configured")
	}

	if serveAutoPort {
		port, err := services.FindAvailablePort("", services.DefaultPortRangeStart, services.DefaultPortRangeEnd)
		if err != nil {
			return err
		}
		servePort = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ports := &mcp.Ports{
		Dispatcher: dispatcher,
		Tasks:      taskService,
	}
	if servePort > 0 && taskService != nil {
		ports.Admin = admin.NewHandler(taskService, settingsService)
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	if notifications != nil {
		notifications.Add(server)
	}

	logger.SetTimestamps(true)
	logger.Section("cmdbridge serve")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if scheduler != nil {
		g.Go(func() error {
			if err := scheduler.Start(gctx); err != nil && gctx.Err() == nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
	}

	if configWatcher != nil {
		g.Go(func() error {
			if err := configWatcher.Run(gctx); err != nil && gctx.Err() == nil {
				logger.Warn("config watcher disabled: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		// Returning from the front-end stops the scheduler and watcher.
		defer cancel()
		if servePort > 0 {
			addr := fmt.Sprintf(":%d", servePort)
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(gctx, addr)
		}
		return server.Run(gctx)
	})

	err = g.Wait()

	if scheduler != nil {
		if stopErr := scheduler.Stop(); stopErr != nil {
			logger.Warn("scheduler: stop: %v", stopErr)
		}
	}

	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	return err
}
