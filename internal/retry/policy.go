package retry

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
)

// Policy encapsulates retry/backoff settings for transient upstream failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
	Jitter     time.Duration           // upper bound of the random delay added to each wait
}

// DefaultPolicy returns the default policy: exponential, 1s initial, 30s cap,
// 2 retries (3 attempts in total) and up to 500ms of jitter.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffExponential,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
		Jitter:     500 * time.Millisecond,
	}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int, jitter time.Duration) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if jitter >= 0 {
		p.Jitter = jitter
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	default:
		// unknown or empty -> keep default
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from the retry section of the configuration.
func FromConfig(c config.RetryConfig) Policy {
	return NewPolicy(config.NormalizeRetryBackoff(c.Backoff), c.InitialDuration(), c.MaxDuration(), c.Retries(), c.JitterDuration())
}

// Attempts returns the total number of attempts (first try plus retries).
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Delay returns the backoff delay for the given retry number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		if retryCount > 32 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// DelayWithJitter returns Delay(retryCount) plus jitter scaled by r, where r is in [0,1).
func (p Policy) DelayWithJitter(retryCount int, r float64) time.Duration {
	d := p.Delay(retryCount)
	if d == 0 || p.Jitter <= 0 {
		return d
	}
	if r < 0 {
		r = 0
	}
	if r >= 1 {
		r = 0.999999
	}
	return d + time.Duration(r*float64(p.Jitter))
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if p.Jitter < 0 {
		return fmt.Errorf("jitter cannot be negative")
	}
	return nil
}
