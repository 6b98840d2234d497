package config

import (
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/normalization"
)

// RetryBackoffMode enumerates supported backoff strategies.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff returns the canonical mode or "" when raw is unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// InitialDuration returns the parsed initial delay, or zero when unparsable.
func (c RetryConfig) InitialDuration() time.Duration { return parseDuration(c.Initial) }

// MaxDuration returns the parsed delay cap, or zero when unparsable.
func (c RetryConfig) MaxDuration() time.Duration { return parseDuration(c.Max) }

// JitterDuration returns the parsed jitter bound, or zero when unparsable.
func (c RetryConfig) JitterDuration() time.Duration { return parseDuration(c.Jitter) }

// Retries returns the configured retry count, or -1 when unset.
func (c RetryConfig) Retries() int {
	if c.MaxRetries == nil {
		return -1
	}
	return *c.MaxRetries
}

// TimeoutDuration returns the GitHub timeout applied to each attempt; retry
// backoff is not included.
func (c GitHubConfig) TimeoutDuration() time.Duration { return parseDuration(c.Timeout) }

// TimeoutDuration returns the LLM timeout applied to each attempt; retry
// backoff is not included.
func (c LLMConfig) TimeoutDuration() time.Duration { return parseDuration(c.Timeout) }

// SessionTTLDuration returns how long an idle session survives.
func (c ServerConfig) SessionTTLDuration() time.Duration { return parseDuration(c.SessionTTL) }

// SweepIntervalDuration returns how often idle sessions are swept.
func (c ServerConfig) SweepIntervalDuration() time.Duration { return parseDuration(c.SweepInterval) }

// TTLDuration returns the lifetime of cached entries.
func (c CacheConfig) TTLDuration() time.Duration { return parseDuration(c.TTL) }

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
