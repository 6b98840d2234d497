package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
	"git.home.luguber.info/inful/repoexplorer/internal/metrics"
	"git.home.luguber.info/inful/repoexplorer/internal/server/httpserver"
	"git.home.luguber.info/inful/repoexplorer/internal/services"
	"git.home.luguber.info/inful/repoexplorer/internal/session"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `help:"Listen address (overrides server.addr)"`
	NoWatch bool   `name:"no-watch" help:"Do not reload the configuration file on change"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunServe(ctx, cfg, root.Config, root.Verbose, !s.NoWatch)
}

// RunServe runs the HTTP server until ctx is cancelled.
func RunServe(ctx context.Context, cfg *config.Config, configPath string, verbose, watch bool) error {
	logger := slog.Default()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(reg)

	rt, err := newRuntime(ctx, cfg, recorder, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	sessions := session.NewManager(rt.newSession,
		cfg.Server.SessionTTLDuration(), cfg.Server.SweepIntervalDuration(), recorder)
	srv := httpserver.New(cfg.Server, httpserver.Options{
		Sessions:        sessions,
		History:         rt.historyStore(),
		MetricsHandler:  metrics.HTTPHandler(reg),
		RequestObserver: recorder,
		Logger:          logger,
	})

	orchestrator := services.NewServiceOrchestrator().WithTimeouts(shutdownTimeout, shutdownTimeout)
	components := []services.ManagedService{
		services.Func{
			ServiceName: "sessions",
			StartFunc:   sessions.Start,
			StopFunc:    func(context.Context) error { return sessions.Stop() },
		},
		services.Func{
			ServiceName: "http",
			Deps:        []string{"sessions"},
			StartFunc:   srv.Start,
			StopFunc:    srv.Stop,
		},
	}
	if watch {
		if w := newConfigWatcher(ctx, configPath, rt, verbose); w != nil {
			components = append(components, w)
		}
	}
	for _, c := range components {
		if err := orchestrator.RegisterService(c); err != nil {
			return err
		}
	}
	if err := orchestrator.StartAll(ctx); err != nil {
		return err
	}

	logger.Info("Repository explorer ready",
		slog.String("addr", srv.Addr()),
		logfields.Model(rt.gemini.Model()),
		slog.Bool("history", rt.history != nil),
		slog.Bool("cache", rt.cache != nil))

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping server...")

	return orchestrator.StopAll(context.WithoutCancel(ctx))
}

// newConfigWatcher reloads the log level and the model when the configuration
// file changes. It returns nil when the file does not exist.
func newConfigWatcher(ctx context.Context, configPath string, rt *runtime, verbose bool) services.ManagedService {
	if _, err := os.Stat(configPath); err != nil {
		return nil
	}
	var w *config.Watcher
	return services.Func{
		ServiceName: "config-watcher",
		StartFunc: func(context.Context) error {
			var err error
			w, err = config.NewWatcher(configPath, 0, func(_ context.Context, next *config.Config) error {
				if !verbose {
					logLevel.Set(next.Logging.SlogLevel())
				}
				rt.gemini.SetModel(next.LLM.Model)
				rt.logger.Info("Configuration reloaded",
					logfields.Model(rt.gemini.Model()),
					slog.String("log_level", next.Logging.Level))
				return nil
			})
			if err != nil {
				return err
			}
			// The watcher lives as long as the server, not the start timeout.
			return w.Start(ctx)
		},
		StopFunc: func(context.Context) error {
			if w == nil {
				return nil
			}
			return w.Stop()
		},
	}
}
