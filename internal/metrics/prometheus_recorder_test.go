package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveUpstreamRequest(ServiceGitHub, 200, 150*time.Millisecond)
	pr.ObserveUpstreamRequest(ServiceLLM, 0, time.Second)
	pr.IncRetry(ServiceGitHub, "rate_limited")
	pr.IncRetry(ServiceGitHub, "rate_limited")
	pr.IncRetryExhausted(ServiceLLM)
	pr.IncInsight("summary", "success")
	pr.SetActiveSessions(3)
	pr.ObserveHTTPRequest("/api/sessions", 201, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.retries.WithLabelValues(ServiceGitHub, "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.retriesExhausted.WithLabelValues(ServiceLLM)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.insights.WithLabelValues("summary", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pr.activeSessions))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncRetry("x", "y")
		pr.SetActiveSessions(1)
		pr.ObserveHTTPRequest("/", 200, time.Millisecond)
	})
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncInsight("conversion", "failure")

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `repoexplorer_insights_total{kind="conversion",outcome="failure"} 1`)
}

func TestRecorderImplementations(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
}
