package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/heartsync/internal/application"
	"github.com/ericfisherdev/heartsync/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// syncErrorResponse is returned when a triggered cycle fails.
type syncErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	CycleID string `json:"cycle_id,omitempty"`
}

// SyncResultResponse is the JSON representation of a completed cycle.
type SyncResultResponse struct {
	CycleID     string `json:"cycle_id"`
	UserID      int64  `json:"user_id"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	Fetched     int    `json:"fetched"`
	Inserted    int    `json:"inserted"`
	Relogins    int    `json:"relogins"`
	StartedAt   string `json:"started_at"`
	DurationMS  int64  `json:"duration_ms"`
}

// CycleResponse is the JSON representation of the most recent cycle.
type CycleResponse struct {
	CycleID    string              `json:"cycle_id"`
	StartedAt  string              `json:"started_at"`
	FinishedAt string              `json:"finished_at"`
	Succeeded  bool                `json:"succeeded"`
	Result     *SyncResultResponse `json:"result,omitempty"`
	ErrorKind  string              `json:"error_kind,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// StatusResponse is the JSON representation of the status endpoint.
type StatusResponse struct {
	LastCycle     *CycleResponse `json:"last_cycle"`
	NextRunAt     string         `json:"next_run_at,omitempty"`
	LastRunAt     string         `json:"last_run_at,omitempty"`
	SessionCached bool           `json:"session_cached"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toSyncResultResponse(r model.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		CycleID:     r.CycleID,
		UserID:      r.UserID,
		WindowStart: formatTime(r.Window.Start),
		WindowEnd:   formatTime(r.Window.End),
		Fetched:     r.Fetched,
		Inserted:    r.Inserted,
		Relogins:    r.Relogins,
		StartedAt:   formatTime(r.StartedAt),
		DurationMS:  r.Duration.Milliseconds(),
	}
}

func toStatusResponse(s application.Status) StatusResponse {
	resp := StatusResponse{
		NextRunAt:     formatTime(s.Schedule.NextRunAt),
		LastRunAt:     formatTime(s.Schedule.LastRunAt),
		SessionCached: s.SessionCached,
	}

	if last := s.Last; last != nil {
		cycle := &CycleResponse{
			CycleID:    last.CycleID,
			StartedAt:  formatTime(last.StartedAt),
			FinishedAt: formatTime(last.FinishedAt),
			Succeeded:  last.Succeeded(),
			ErrorKind:  last.ErrorKind,
			Error:      last.Error,
		}
		if last.Result != nil {
			r := toSyncResultResponse(*last.Result)
			cycle.Result = &r
		}
		resp.LastCycle = cycle
	}

	return resp
}

// formatTime renders t as RFC 3339 in UTC; the zero time renders as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
