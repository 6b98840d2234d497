package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/repoexplorer/internal/cache"
	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/history"
	"git.home.luguber.info/inful/repoexplorer/internal/llm"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
	"git.home.luguber.info/inful/repoexplorer/internal/metrics"
	"git.home.luguber.info/inful/repoexplorer/internal/retry"
	"git.home.luguber.info/inful/repoexplorer/internal/server/handlers"
)

// runtime holds the upstream clients and optional stores shared by the commands.
type runtime struct {
	cfg      *config.Config
	github   *github.Client
	gemini   *llm.GeminiClient
	gen      llm.Generator
	cache    *cache.NATSCache
	history  *history.SQLiteStore
	recorder metrics.Recorder
	observer explorer.InsightObserver // defaults to recorder
	logger   *slog.Logger
}

// newRuntime wires both upstream clients through their own retry transport.
// An unreachable cache is logged and skipped; a history database that cannot
// be opened is an error.
func newRuntime(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger) (*runtime, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	policy := retry.FromConfig(cfg.Retry)
	ghTransport := retry.NewTransport(nil, policy, metrics.ServiceGitHub, recorder)
	ghTransport.Logger = logger
	ghTransport.AttemptTimeout = cfg.GitHub.TimeoutDuration()
	llmTransport := retry.NewTransport(nil, policy, metrics.ServiceLLM, recorder)
	llmTransport.Logger = logger
	llmTransport.AttemptTimeout = cfg.LLM.TimeoutDuration()

	ghClient, err := github.NewClientFromConfig(cfg.GitHub, ghTransport)
	if err != nil {
		return nil, err
	}
	gemini := llm.NewGeminiClientFromConfig(cfg.LLM, llmTransport)

	rt := &runtime{
		cfg:      cfg,
		github:   ghClient,
		gemini:   gemini,
		gen:      gemini,
		recorder: recorder,
		observer: recorder,
		logger:   logger,
	}

	kv, err := cache.NewFromConfig(ctx, cfg.Cache)
	switch {
	case err != nil:
		logger.Warn("Generated text cache unavailable, continuing without it",
			slog.String("nats_url", cfg.Cache.NATSURL),
			logfields.Error(err))
	case kv != nil:
		rt.cache = kv
		rt.gen = llm.NewCachedGenerator(gemini, kv, logger)
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.history = store
	}
	return rt, nil
}

// newSession builds an explorer session on the shared clients.
func (rt *runtime) newSession(id string) (*explorer.Session, error) {
	opts := explorer.Options{
		ID:            id,
		Source:        rt.github,
		Generator:     rt.gen,
		Observer:      rt.observer,
		Logger:        rt.logger,
		DefaultTarget: rt.cfg.Conversion.DefaultTarget,
	}
	if rt.history != nil {
		opts.Recorder = rt.history
	}
	return explorer.New(opts)
}

// historyStore returns the insight history, or nil when it is disabled.
func (rt *runtime) historyStore() handlers.HistoryStore {
	if rt.history == nil {
		return nil
	}
	return rt.history
}

// Close releases the cache connection and the history database.
func (rt *runtime) Close() {
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			rt.logger.Warn("Failed to close cache", logfields.Error(err))
		}
		rt.cache = nil
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			rt.logger.Warn("Failed to close history", logfields.Error(err))
		}
		rt.history = nil
	}
}
