package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// notifyTimeout bounds how long a notification may wait on one session.
const notifyTimeout = 2 * time.Second

// Ensure Server can receive task notifications.
var _ driven.Notifier = (*Server)(nil)

// Server is the MCP server for cmdbridge.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "cmdbridge",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	if ports.Tasks != nil {
		s.registerResources()
	}

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the HTTP handler serving MCP and, when configured,
// the admin API under /admin/.
func (s *Server) Handler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	if s.ports.Admin == nil {
		return streamable
	}

	mux := http.NewServeMux()
	mux.Handle("/admin/", s.ports.Admin)
	mux.Handle("/", streamable)
	return mux
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Info sends an info-level log message to every connected client.
func (s *Server) Info(message string) {
	s.broadcast("info", message)
}

// Warn sends a warning-level log message to every connected client.
func (s *Server) Warn(message string) {
	s.broadcast("warning", message)
}

// Error sends an error-level log message to every connected client.
func (s *Server) Error(message string) {
	s.broadcast("error", message)
}

// broadcast delivers a log message to each session. Sessions that have
// not set a log level receive nothing.
func (s *Server) broadcast(level mcp.LoggingLevel, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for session := range s.server.Sessions() {
		err := session.Log(ctx, &mcp.LoggingMessageParams{
			Level:  level,
			Logger: "cmdbridge",
			Data:   message,
		})
		if err != nil {
			logger.Debug("mcp: failed to notify session %s: %v", session.ID(), err)
		}
	}
}
