package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/server/responses"
	"git.home.luguber.info/inful/repoexplorer/internal/version"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	sessions     SessionCounter
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(sessions SessionCounter, startTime time.Time, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{
		sessions:     sessions,
		startTime:    startTime,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if h.sessions != nil {
		health.ActiveSessions = h.sessions.Len()
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
