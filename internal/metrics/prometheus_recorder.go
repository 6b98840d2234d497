package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "repoexplorer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	upstreamDuration *prom.HistogramVec
	retries          *prom.CounterVec
	retriesExhausted *prom.CounterVec
	insights         *prom.CounterVec
	activeSessions   prom.Gauge
	httpDuration     *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		upstreamDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of GitHub and LLM API attempts",
			Buckets:   prom.DefBuckets,
		}, []string{"service", "status"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Upstream request retries by reason",
		}, []string{"service", "reason"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retry_exhausted_total",
			Help:      "Upstream requests that failed after the last attempt",
		}, []string{"service"}),
		insights: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "insights_total",
			Help:      "Generated summaries, explanations and conversions by outcome",
		}, []string{"kind", "outcome"}),
		activeSessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Explorer sessions currently held by the server",
		}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests served",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(pr.upstreamDuration, pr.retries, pr.retriesExhausted, pr.insights, pr.activeSessions, pr.httpDuration)
	return pr
}

func statusLabel(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

func (p *PrometheusRecorder) ObserveUpstreamRequest(service string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.upstreamDuration.WithLabelValues(service, statusLabel(status)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRetry(service, reason string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(service, reason).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(service string) {
	if p == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(service).Inc()
}

func (p *PrometheusRecorder) IncInsight(kind, outcome string) {
	if p == nil {
		return
	}
	p.insights.WithLabelValues(kind, outcome).Inc()
}

func (p *PrometheusRecorder) SetActiveSessions(n int) {
	if p == nil {
		return
	}
	p.activeSessions.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, statusLabel(status)).Observe(d.Seconds())
}
