// Package httpserver wires the repoexplorer HTTP routes, middleware and listener.
package httpserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
	"git.home.luguber.info/inful/repoexplorer/internal/server/handlers"
	smw "git.home.luguber.info/inful/repoexplorer/internal/server/middleware"
)

// Server serves the session API, the HTML view, history, health and metrics.
type Server struct {
	cfg          config.ServerConfig
	opts         Options
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter

	// Handler modules
	sessionHandlers    *handlers.SessionHandlers
	uiHandlers         *handlers.UIHandlers
	historyHandlers    *handlers.HistoryHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// New constructs a new HTTP server wiring instance.
func New(cfg config.ServerConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		logger:       logger,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}

	s.sessionHandlers = handlers.NewSessionHandlers(opts.Sessions, logger)
	s.uiHandlers = handlers.NewUIHandlers(opts.Sessions, logger)
	s.historyHandlers = handlers.NewHistoryHandlers(opts.History, logger)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Sessions, time.Now(), logger)

	s.mchain = smw.Chain(logger, s.errorAdapter, opts.RequestObserver)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.sessionHandlers.HandleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.sessionHandlers.HandleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.sessionHandlers.HandleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/actions/{action}", s.sessionHandlers.HandleAction)
	mux.HandleFunc("GET /api/history", s.historyHandlers.HandleList)

	mux.HandleFunc("GET /{$}", s.uiHandlers.HandleIndex)
	mux.HandleFunc("GET /ui/{id}", s.uiHandlers.HandleView)
	mux.HandleFunc("POST /ui/{id}/{action}", s.uiHandlers.HandleAction)

	mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck)
	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}

	return s.mchain(mux)
}

// Start binds the configured address and serves in the background. Bind
// errors are returned so startup fails fast.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "http startup failed").
			WithContext("addr", s.cfg.Addr).
			Fatal().
			Build()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Conversions and summaries wait on the model, so writes get a generous timeout.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()

	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "http server shutdown").Build()
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
