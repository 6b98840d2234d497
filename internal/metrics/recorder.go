package metrics

import "time"

// Upstream service labels.
const (
	ServiceGitHub = "github"
	ServiceLLM    = "llm"
)

// Recorder defines observability hooks for upstream calls, retries, generated
// insights, sessions and the HTTP surface.
type Recorder interface {
	ObserveUpstreamRequest(service string, status int, d time.Duration)
	IncRetry(service, reason string)
	IncRetryExhausted(service string)
	IncInsight(kind, outcome string)
	SetActiveSessions(n int)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveUpstreamRequest(string, int, time.Duration) {}
func (NoopRecorder) IncRetry(string, string)                           {}
func (NoopRecorder) IncRetryExhausted(string)                          {}
func (NoopRecorder) IncInsight(string, string)                         {}
func (NoopRecorder) SetActiveSessions(int)                             {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration)     {}
