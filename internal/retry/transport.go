package retry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// Retry reasons reported to the Observer.
const (
	ReasonRateLimited = "rate_limited"
	ReasonNetwork     = "network"
)

// Observer receives retry and upstream timing events. metrics.Recorder satisfies it.
type Observer interface {
	ObserveUpstreamRequest(service string, status int, d time.Duration)
	IncRetry(service, reason string)
	IncRetryExhausted(service string)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstreamRequest(string, int, time.Duration) {}
func (noopObserver) IncRetry(string, string)                           {}
func (noopObserver) IncRetryExhausted(string)                          {}

// Transport is an http.RoundTripper that re-issues a request when the upstream
// answers 429 Too Many Requests or the round trip fails at the network level.
// Every other response, successful or not, is handed back untouched.
//
// When the attempts run out the last 429 response (or the last network error)
// is returned so the caller can classify it.
type Transport struct {
	Base     http.RoundTripper
	Policy   Policy
	Service  string
	Observer Observer
	Logger   *slog.Logger
	// AttemptTimeout bounds each round trip, including reading the body.
	// Backoff sleeps are not counted. Zero means no limit.
	AttemptTimeout time.Duration

	// Rand returns values in [0,1) for jitter; nil uses math/rand/v2.
	Rand func() float64
	// Sleep waits for d or until ctx is done; nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewTransport wraps base (nil means http.DefaultTransport) with the given policy.
func NewTransport(base http.RoundTripper, policy Policy, service string, observer Observer) *Transport {
	return &Transport{Base: base, Policy: policy, Service: service, Observer: observer}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	obs := t.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := req.Context()
	attempts := t.Policy.Attempts()

	for attempt := 1; ; attempt++ {
		r, err := t.prepare(req, attempt)
		if err != nil {
			return nil, err
		}

		cancel := context.CancelFunc(func() {})
		if t.AttemptTimeout > 0 {
			var attemptCtx context.Context
			attemptCtx, cancel = context.WithTimeout(ctx, t.AttemptTimeout)
			r = r.WithContext(attemptCtx)
		}

		start := time.Now()
		resp, err := base.RoundTrip(r)
		status := 0
		if resp != nil {
			status = resp.StatusCode
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		} else {
			cancel()
		}
		obs.ObserveUpstreamRequest(t.Service, status, time.Since(start))

		var reason string
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, err
			}
			reason = ReasonNetwork
		case resp.StatusCode == http.StatusTooManyRequests:
			reason = ReasonRateLimited
		default:
			return resp, nil
		}

		if attempt >= attempts {
			obs.IncRetryExhausted(t.Service)
			logger.Warn("Upstream retries exhausted",
				logfields.Service(t.Service),
				logfields.Attempt(attempt),
				slog.String("reason", reason),
				logfields.URL(redact(req)))
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
		}

		delay := t.Policy.DelayWithJitter(attempt, t.random())
		obs.IncRetry(t.Service, reason)
		logger.Debug("Retrying upstream request",
			logfields.Service(t.Service),
			logfields.Attempt(attempt),
			slog.String("reason", reason),
			slog.Duration("delay", delay))

		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// cancelOnClose releases the attempt context once the caller is done with the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// prepare returns the request to send for the given attempt, rewinding the body on retries.
func (t *Transport) prepare(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("retry %s %s: request body cannot be replayed", req.Method, redact(req))
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("retry %s %s: rewind body: %w", req.Method, redact(req), err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func (t *Transport) random() float64 {
	if t.Rand != nil {
		return t.Rand()
	}
	return rand.Float64()
}

func (t *Transport) sleep(ctx context.Context, d time.Duration) error {
	if t.Sleep != nil {
		return t.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep blocks for d or until ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// redact strips the query string, which may carry API keys.
func redact(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
