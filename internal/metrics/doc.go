// Package metrics provides the observability hooks of repoexplorer.
//
// Components receive a Recorder through their options. NoopRecorder is the
// default and does nothing, so callers never need nil checks:
//
//	rec := metrics.Recorder(metrics.NoopRecorder{})
//	if cfg.Metrics {
//	    rec = metrics.NewPrometheusRecorder(reg)
//	}
//
// The retry transport, the explorer sessions, the session manager and the
// HTTP middleware each depend only on the narrow interface they need, which
// Recorder satisfies.
package metrics
