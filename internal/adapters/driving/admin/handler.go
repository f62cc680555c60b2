// Package admin provides the operator HTTP API for inspecting and
// managing background tasks and reloading configuration.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Clear scopes accepted by POST /admin/tasks/clear.
const (
	ScopeCompleted = "completed"
	ScopeAll       = "all"
)

// Handler serves the /admin/ routes.
type Handler struct {
	tasks    driving.TaskService
	settings driving.SettingsService
	mux      *http.ServeMux
}

// NewHandler creates the admin API. settings may be nil, in which case
// the refresh route reports 503.
func NewHandler(tasks driving.TaskService, settings driving.SettingsService) *Handler {
	h := &Handler{
		tasks:    tasks,
		settings: settings,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /admin/tasks", h.listTasks)
	h.mux.HandleFunc("GET /admin/tasks/stats", h.taskStats)
	h.mux.HandleFunc("GET /admin/tasks/{id}", h.getTask)
	h.mux.HandleFunc("POST /admin/tasks/{id}/cancel", h.cancelTask)
	h.mux.HandleFunc("POST /admin/tasks/clear", h.clearTasks)
	h.mux.HandleFunc("POST /admin/config/refresh", h.refreshConfig)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// refreshResponse is the body returned by POST /admin/config/refresh.
type refreshResponse struct {
	ModeChanged      bool     `json:"modeChanged"`
	AllowListChanged bool     `json:"allowListChanged"`
	PurgedTaskIDs    []string `json:"purgedTaskIds"`
}

type cancelResponse struct {
	ID        string `json:"id"`
	Cancelled bool   `json:"cancelled"`
}

type clearResponse struct {
	Scope   string `json:"scope"`
	Removed int    `json:"removed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) taskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tasks.Stats(r.Context()))
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, task)
	}
}

func (h *Handler) cancelTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cancelled := h.tasks.Cancel(r.Context(), id)

	status := http.StatusOK
	if !cancelled {
		status = http.StatusConflict
	}
	writeJSON(w, status, cancelResponse{ID: id, Cancelled: cancelled})
}

func (h *Handler) clearTasks(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = ScopeCompleted
	}

	var removed int
	switch scope {
	case ScopeCompleted:
		removed = h.tasks.ClearCompleted(r.Context())
	case ScopeAll:
		removed = h.tasks.ClearAll(r.Context())
	default:
		writeError(w, http.StatusBadRequest, errors.New("scope must be completed or all"))
		return
	}

	logger.Info("admin: cleared %d tasks (scope %s)", removed, scope)
	writeJSON(w, http.StatusOK, clearResponse{Scope: scope, Removed: removed})
}

func (h *Handler) refreshConfig(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("configuration refresh not available"))
		return
	}

	report, err := h.settings.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	purged := report.PurgedTaskIDs
	if purged == nil {
		purged = []string{}
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		ModeChanged:      report.ModeChanged,
		AllowListChanged: report.AllowListChanged,
		PurgedTaskIDs:    purged,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("admin: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
