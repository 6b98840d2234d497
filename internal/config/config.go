package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

// Config is the repoexplorer configuration file format.
type Config struct {
	GitHub     GitHubConfig     `yaml:"github"`
	LLM        LLMConfig        `yaml:"llm"`
	Retry      RetryConfig      `yaml:"retry"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	History    HistoryConfig    `yaml:"history"`
	Cache      CacheConfig      `yaml:"cache"`
	Conversion ConversionConfig `yaml:"conversion"`
}

// GitHubConfig configures the GitHub REST client.
type GitHubConfig struct {
	APIURL   string `yaml:"api_url"`   // REST base URL, GitHub Enterprise hosts end in /api/v3/
	Token    string `yaml:"token"`     // Optional; anonymous access is rate limited harder
	PerPage  int    `yaml:"per_page"`  // Page size for repository listings
	MaxPages int    `yaml:"max_pages"` // Upper bound on listing pages fetched per search
	Timeout  string `yaml:"timeout"`   // Per-attempt timeout (Go duration), excluding retry backoff
}

// LLMConfig configures the generative-language API client.
type LLMConfig struct {
	APIURL  string `yaml:"api_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"` // Per-attempt timeout, excluding retry backoff
}

// RetryConfig configures backoff for rate-limited or failed upstream calls.
type RetryConfig struct {
	Backoff    string `yaml:"backoff"` // fixed|linear|exponential
	Initial    string `yaml:"initial"`
	Max        string `yaml:"max"`
	MaxRetries *int   `yaml:"max_retries"` // nil means default; 0 disables retries
	Jitter     string `yaml:"jitter"`
}

// ServerConfig configures `repoexplorer serve`.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	SessionTTL    string `yaml:"session_ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HistoryConfig configures the SQLite insight history. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig configures the NATS key/value cache for generated text. Empty URL disables it.
type CacheConfig struct {
	NATSURL string `yaml:"nats_url"`
	Bucket  string `yaml:"bucket"`
	TTL     string `yaml:"ttl"`
}

// ConversionConfig configures code conversion defaults.
type ConversionConfig struct {
	DefaultTarget string `yaml:"default_target"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist,
// so one-shot CLI commands work without a configuration file.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		loadEnvFiles()
		cfg := &Config{}
		applyEnvFallbacks(cfg)
		applyDefaults(cfg)
		return cfg, cfg.Validate()
	}
	return Load(configPath)
}

// Parse decodes YAML (after ${ENV} expansion), applies environment fallbacks and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			Build()
	}

	applyEnvFallbacks(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.GitHub.Token = "${GITHUB_TOKEN}"
	example.LLM.APIKey = "${GEMINI_API_KEY}"
	example.History.Path = "repoexplorer.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
