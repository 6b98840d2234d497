package config

// Default values applied when a field is left empty.
const (
	DefaultGitHubAPIURL  = "https://api.github.com/"
	DefaultPerPage       = 100
	DefaultMaxPages      = 3
	DefaultGitHubTimeout = "30s"
	DefaultLLMAPIURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultLLMModel      = "gemini-2.5-flash-preview-09-2025"
	DefaultLLMTimeout    = "60s"
	DefaultRetryInitial  = "1s"
	DefaultRetryMax      = "30s"
	DefaultRetryJitter   = "500ms"
	DefaultMaxRetries    = 2
	DefaultServerAddr    = ":8080"
	DefaultSessionTTL    = "30m"
	DefaultSweepInterval = "1m"
	DefaultCacheBucket   = "repoexplorer-insights"
	DefaultCacheTTL      = "24h"
	DefaultConvertTarget = "Python"
)

func applyDefaults(cfg *Config) {
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = DefaultGitHubAPIURL
	}
	if cfg.GitHub.PerPage <= 0 || cfg.GitHub.PerPage > 100 {
		cfg.GitHub.PerPage = DefaultPerPage
	}
	if cfg.GitHub.MaxPages <= 0 {
		cfg.GitHub.MaxPages = DefaultMaxPages
	}
	if cfg.GitHub.Timeout == "" {
		cfg.GitHub.Timeout = DefaultGitHubTimeout
	}

	if cfg.LLM.APIURL == "" {
		cfg.LLM.APIURL = DefaultLLMAPIURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Timeout == "" {
		cfg.LLM.Timeout = DefaultLLMTimeout
	}

	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = string(RetryBackoffExponential)
	} else if mode := NormalizeRetryBackoff(cfg.Retry.Backoff); mode != "" {
		cfg.Retry.Backoff = string(mode)
	}
	if cfg.Retry.Initial == "" {
		cfg.Retry.Initial = DefaultRetryInitial
	}
	if cfg.Retry.Max == "" {
		cfg.Retry.Max = DefaultRetryMax
	}
	if cfg.Retry.Jitter == "" {
		cfg.Retry.Jitter = DefaultRetryJitter
	}
	if cfg.Retry.MaxRetries == nil {
		n := DefaultMaxRetries
		cfg.Retry.MaxRetries = &n
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.SessionTTL == "" {
		cfg.Server.SessionTTL = DefaultSessionTTL
	}
	if cfg.Server.SweepInterval == "" {
		cfg.Server.SweepInterval = DefaultSweepInterval
	}

	cfg.Logging.Level = string(NormalizeLogLevel(cfg.Logging.Level))
	cfg.Logging.Format = string(NormalizeLogFormat(cfg.Logging.Format))

	if cfg.Cache.Bucket == "" {
		cfg.Cache.Bucket = DefaultCacheBucket
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = DefaultCacheTTL
	}

	if cfg.Conversion.DefaultTarget == "" {
		cfg.Conversion.DefaultTarget = DefaultConvertTarget
	}
}
