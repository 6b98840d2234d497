package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// Cache stores generated text by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// CachedGenerator serves repeated prompts from a Cache. Cache failures are
// logged and never fail a generation.
type CachedGenerator struct {
	next   Generator
	cache  Cache
	logger *slog.Logger
}

// NewCachedGenerator wraps next with cache.
func NewCachedGenerator(next Generator, cache Cache, logger *slog.Logger) *CachedGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedGenerator{next: next, cache: cache, logger: logger}
}

// Model reports the model of the wrapped generator.
func (g *CachedGenerator) Model() string { return ModelOf(g.next) }

// Generate returns a cached reply when present, otherwise calls the wrapped
// generator and stores its reply.
func (g *CachedGenerator) Generate(ctx context.Context, systemPrompt, userQuery string) (string, error) {
	key := CacheKey(g.Model(), systemPrompt, userQuery)

	if text, ok, err := g.cache.Get(ctx, key); err != nil {
		g.logger.Warn("Generation cache lookup failed", logfields.Error(err))
	} else if ok {
		g.logger.Debug("Generation cache hit", slog.String("key", key[:12]))
		return text, nil
	}

	text, err := g.next.Generate(ctx, systemPrompt, userQuery)
	if err != nil {
		return "", err
	}
	if text == MsgNoResponse {
		return text, nil
	}
	if err := g.cache.Put(ctx, key, text); err != nil {
		g.logger.Warn("Generation cache store failed", logfields.Error(err))
	}
	return text, nil
}

// CacheKey derives a stable key from the model and both prompt halves.
func CacheKey(model, systemPrompt, userQuery string) string {
	h := sha256.New()
	for _, s := range []string{model, systemPrompt, userQuery} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
