// Package remote provides a driving.TaskService backed by the admin API
// of a running "cmdbridge serve --port" process.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure Client implements the interface.
var _ driving.TaskService = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration for the admin API client.
type Config struct {
	// BaseURL is the server address (default: http://localhost:8080).
	BaseURL string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration
}

// Client talks to the /admin/ routes.
type Client struct {
	client  *http.Client
	baseURL string
}

// RefreshResult is the body of POST /admin/config/refresh.
type RefreshResult struct {
	ModeChanged      bool     `json:"modeChanged"`
	AllowListChanged bool     `json:"allowListChanged"`
	PurgedTaskIDs    []string `json:"purgedTaskIds"`
}

type cancelResult struct {
	Cancelled bool `json:"cancelled"`
}

type clearResult struct {
	Removed int `json:"removed"`
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusError is a non-2xx admin API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("admin API returned %d", e.Code)
	}
	return fmt.Sprintf("admin API returned %d: %s", e.Code, e.Message)
}

// NewClient creates an admin API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get retrieves a task by ID.
// Returns domain.ErrNotFound if the server does not know the task.
func (c *Client) Get(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, http.MethodGet, "/admin/tasks/"+url.PathEscape(id), &task)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns all tasks, oldest first.
func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/admin/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Stats returns task counts. A failed request yields zero counts.
func (c *Client) Stats(ctx context.Context) domain.TaskStats {
	var stats domain.TaskStats
	if err := c.do(ctx, http.MethodGet, "/admin/tasks/stats", &stats); err != nil {
		logger.Warn("remote: stats: %v", err)
		return domain.TaskStats{}
	}
	return stats
}

// Cancel cancels a pending or running task.
func (c *Client) Cancel(ctx context.Context, id string) bool {
	var result cancelResult
	err := c.do(ctx, http.MethodPost, "/admin/tasks/"+url.PathEscape(id)+"/cancel", &result)

	var statusErr *StatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict) {
		logger.Warn("remote: cancel %s: %v", id, err)
	}
	return err == nil && result.Cancelled
}

// ClearCompleted removes finished tasks.
func (c *Client) ClearCompleted(ctx context.Context) int {
	return c.clear(ctx, "completed")
}

// ClearAll removes every task.
func (c *Client) ClearAll(ctx context.Context) int {
	return c.clear(ctx, "all")
}

func (c *Client) clear(ctx context.Context, scope string) int {
	var result clearResult
	if err := c.do(ctx, http.MethodPost, "/admin/tasks/clear?scope="+scope, &result); err != nil {
		logger.Warn("remote: clear %s: %v", scope, err)
		return 0
	}
	return result.Removed
}

// RefreshConfig asks the server to reload its configuration file.
func (c *Client) RefreshConfig(ctx context.Context) (*RefreshResult, error) {
	var result RefreshResult
	if err := c.do(ctx, http.MethodPost, "/admin/config/refresh", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do sends a request and decodes a JSON response into out.
// Non-2xx responses become *StatusError, except that 409 still decodes
// the body so callers can read it.
func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorBody
		_ = json.Unmarshal(body, &e)
		if resp.StatusCode == http.StatusConflict && out != nil {
			_ = json.Unmarshal(body, out)
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
