// Package middleware provides HTTP middleware for logging, panic recovery and request metrics.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// RequestObserver receives the route pattern, status and duration of each request.
type RequestObserver interface {
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// Chain returns a middleware wrapper that applies logging, request metrics and
// panic recovery around a handler. observer may be nil.
func Chain(logger *slog.Logger, adapter *errors.HTTPErrorAdapter, observer RequestObserver) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if adapter == nil {
		adapter = errors.NewHTTPErrorAdapter(logger)
	}
	return func(next http.Handler) http.Handler {
		return observeMiddleware(logger, observer, panicRecoveryMiddleware(logger, adapter, next))
	}
}

// observeMiddleware logs method, path, status, duration, user agent, and
// remote addr, and reports the request to observer.
func observeMiddleware(logger *slog.Logger, observer RequestObserver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		logger.Info("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.statusCode),
			slog.Duration("duration", duration),
			logfields.UserAgent(r.UserAgent()),
			logfields.RemoteAddr(r.RemoteAddr))

		if observer != nil {
			observer.ObserveHTTPRequest(routeLabel(r), wrapped.statusCode, duration)
		}
	})
}

// routeLabel uses the matched mux pattern so path parameters do not explode
// metric cardinality.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// panicRecoveryMiddleware recovers from panics and writes a structured error response via the HTTPErrorAdapter.
func panicRecoveryMiddleware(logger *slog.Logger, adapter *errors.HTTPErrorAdapter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method),
					logfields.RemoteAddr(r.RemoteAddr))

				panicErr := errors.InternalError("internal server error").
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()

				adapter.WriteErrorResponse(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
