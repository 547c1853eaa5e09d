// Package httphandler is the HTTP driving adapter: a small JSON API for
// triggering and observing sync cycles, plus the Prometheus scrape endpoint.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/heartsync/internal/application"
	"github.com/ericfisherdev/heartsync/internal/domain/model"
)

// SyncRunner is the subset of the sync service the HTTP API drives.
type SyncRunner interface {
	Trigger(ctx context.Context) (model.SyncResult, error)
	Status() application.Status
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	sync   SyncRunner
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(sync SyncRunner, logger *slog.Logger) *Handler {
	return &Handler{
		sync:   sync,
		logger: logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sync", h.TriggerSync)
	mux.HandleFunc("GET /api/v1/status", h.GetStatus)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// TriggerSync runs a cycle through the scheduler loop and waits for it.
// A failed cycle is reported as 502 with its error kind.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.Trigger(r.Context())
	if err != nil {
		kind := application.ErrorKind(err)
		if kind == application.KindCanceled {
			writeError(w, http.StatusServiceUnavailable, "sync request canceled")
			return
		}

		h.logger.Warn("manual sync failed", "cycle_id", result.CycleID, "kind", kind, "error", err)
		writeJSON(w, http.StatusBadGateway, syncErrorResponse{
			Error:   err.Error(),
			Kind:    kind,
			CycleID: result.CycleID,
		})
		return
	}

	writeJSON(w, http.StatusOK, toSyncResultResponse(result))
}

// GetStatus returns the last cycle outcome and the schedule.
func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatusResponse(h.sync.Status()))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
