package config

import (
	"fmt"
	"net/url"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

// Validate checks the configuration for invalid values. It assumes defaults
// have been applied.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateGitHub,
		c.validateLLM,
		c.validateRetry,
		c.validateServer,
		c.validateLogging,
		c.validateCache,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateGitHub() error {
	if err := validateURL("github.api_url", c.GitHub.APIURL); err != nil {
		return err
	}
	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		return invalid("github.per_page", fmt.Sprint(c.GitHub.PerPage), "must be between 1 and 100")
	}
	if c.GitHub.MaxPages < 1 {
		return invalid("github.max_pages", fmt.Sprint(c.GitHub.MaxPages), "must be positive")
	}
	return validatePositiveDuration("github.timeout", c.GitHub.Timeout)
}

func (c *Config) validateLLM() error {
	if err := validateURL("llm.api_url", c.LLM.APIURL); err != nil {
		return err
	}
	if c.LLM.Model == "" {
		return invalid("llm.model", "", "must not be empty")
	}
	return validatePositiveDuration("llm.timeout", c.LLM.Timeout)
}

func (c *Config) validateRetry() error {
	if NormalizeRetryBackoff(c.Retry.Backoff) == "" {
		return invalid("retry.backoff", c.Retry.Backoff, "must be one of: fixed, linear, exponential")
	}
	if err := validatePositiveDuration("retry.initial", c.Retry.Initial); err != nil {
		return err
	}
	if err := validatePositiveDuration("retry.max", c.Retry.Max); err != nil {
		return err
	}
	if c.Retry.MaxDuration() < c.Retry.InitialDuration() {
		return invalid("retry.max", c.Retry.Max, "must be greater than or equal to retry.initial")
	}
	jitter, err := time.ParseDuration(c.Retry.Jitter)
	if err != nil || jitter < 0 {
		return invalid("retry.jitter", c.Retry.Jitter, "must be a non-negative duration")
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return invalid("retry.max_retries", fmt.Sprint(*c.Retry.MaxRetries), "cannot be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return invalid("server.addr", "", "must not be empty")
	}
	if err := validatePositiveDuration("server.session_ttl", c.Server.SessionTTL); err != nil {
		return err
	}
	return validatePositiveDuration("server.sweep_interval", c.Server.SweepInterval)
}

func (c *Config) validateLogging() error {
	if _, ok := logLevelNormalizer.Lookup(c.Logging.Level); !ok {
		return invalid("logging.level", c.Logging.Level, fmt.Sprintf("valid options: %v", logLevelNormalizer.ValidKeys()))
	}
	if _, ok := logFormatNormalizer.Lookup(c.Logging.Format); !ok {
		return invalid("logging.format", c.Logging.Format, fmt.Sprintf("valid options: %v", logFormatNormalizer.ValidKeys()))
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.NATSURL == "" {
		return nil
	}
	if c.Cache.Bucket == "" {
		return invalid("cache.bucket", "", "must not be empty when cache.nats_url is set")
	}
	return validatePositiveDuration("cache.ttl", c.Cache.TTL)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(field, raw, "must be an absolute URL")
	}
	return nil
}

func validatePositiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return invalid(field, raw, "must be a positive duration")
	}
	return nil
}

func invalid(field, value, reason string) error {
	return errors.ValidationError(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
