package httpserver

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/repoexplorer/internal/server/handlers"
	smw "git.home.luguber.info/inful/repoexplorer/internal/server/middleware"
)

// Options configures the server wiring.
type Options struct {
	// Sessions is required.
	Sessions handlers.SessionStore

	// Optional: insight history. Nil reports the history as disabled.
	History handlers.HistoryStore

	// Optional: Prometheus exposition handler for /metrics.
	MetricsHandler http.Handler

	// Optional: receives per-route request durations.
	RequestObserver smw.RequestObserver

	Logger *slog.Logger
}
