package retry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
)

type recordingObserver struct {
	mu        sync.Mutex
	requests  []int
	retries   []string
	exhausted int
}

func (o *recordingObserver) ObserveUpstreamRequest(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, status)
}

func (o *recordingObserver) IncRetry(_ string, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries = append(o.retries, reason)
}

func (o *recordingObserver) IncRetryExhausted(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exhausted++
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestTransport(base http.RoundTripper, obs Observer, delays *[]time.Duration) *Transport {
	tr := NewTransport(base, NewPolicy(config.RetryBackoffExponential, time.Second, 30*time.Second, 2, 500*time.Millisecond), "test", obs)
	tr.Rand = func() float64 { return 0.5 }
	tr.Sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return tr
}

func TestTransportRetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	var delays []time.Duration
	client := &http.Client{Transport: newTestTransport(http.DefaultTransport, obs, &delays)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{1250 * time.Millisecond, 2250 * time.Millisecond}, delays)
	assert.Equal(t, []string{ReasonRateLimited, ReasonRateLimited}, obs.retries)
	assert.Equal(t, []int{429, 429, 200}, obs.requests)
	assert.Zero(t, obs.exhausted)
}

func TestTransportExhaustedReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	var delays []time.Duration
	client := &http.Client{Transport: newTestTransport(http.DefaultTransport, obs, &delays)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, delays, 2, "no wait after the final attempt")
	assert.Equal(t, 1, obs.exhausted)
}

func TestTransportDoesNotRetryOtherStatuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		var delays []time.Duration
		client := &http.Client{Transport: newTestTransport(http.DefaultTransport, nil, &delays)}
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
		srv.Close()

		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load(), "status %d must not be retried", status)
		assert.Empty(t, delays)
	}
}

func TestTransportRetriesNetworkErrors(t *testing.T) {
	netErr := errors.New("connection reset by peer")
	attempts := 0
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return nil, netErr
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	obs := &recordingObserver{}
	var delays []time.Duration
	tr := newTestTransport(base, obs, &delays)

	req := httptest.NewRequest(http.MethodGet, "https://example.test/x?key=secret", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{ReasonNetwork}, obs.retries)
}

func TestTransportNetworkErrorExhausted(t *testing.T) {
	netErr := errors.New("dial tcp: no route to host")
	base := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, netErr })

	var delays []time.Duration
	tr := newTestTransport(base, nil, &delays)

	resp, err := tr.RoundTrip(httptest.NewRequest(http.MethodGet, "https://example.test/", nil))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, netErr)
	assert.Len(t, delays, 2)
}

func TestTransportReplaysBody(t *testing.T) {
	var bodies []string
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var delays []time.Duration
	client := &http.Client{Transport: newTestTransport(http.DefaultTransport, nil, &delays)}

	resp, err := client.Post(srv.URL, "application/json", strings.NewReader(`{"q":1}`))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, []string{`{"q":1}`, `{"q":1}`}, bodies)
}

func TestTransportStopsWhenContextCanceled(t *testing.T) {
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusTooManyRequests, Body: http.NoBody, Request: r}, nil
	})

	tr := NewTransport(base, DefaultPolicy(), "test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	tr.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	req := httptest.NewRequest(http.MethodGet, "https://example.test/", nil).WithContext(ctx)
	_, err := tr.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestRedactStripsQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "https://example.test/v1/models/m:generateContent?key=abc", nil)
	assert.Equal(t, "https://example.test/v1/models/m:generateContent", redact(req))
}

func TestTransportAttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	var delays []time.Duration
	tr := newTestTransport(http.DefaultTransport, obs, &delays)
	tr.AttemptTimeout = 100 * time.Millisecond
	// Backoff longer than the attempt timeout must not eat into the next attempt.
	tr.Sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		time.Sleep(150 * time.Millisecond)
		return nil
	}
	client := &http.Client{Transport: tr}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{ReasonNetwork}, obs.retries)
	assert.Len(t, delays, 1)
}
