// Package promrpc provides a Prometheus metrics middleware: a request
// counter and a latency histogram, labeled by procedure and outcome.
package promrpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ducksrv/duckserver"
)

// Metrics holds the Prometheus collectors the middleware records to.
// Register Metrics with a prometheus.Registerer before traffic starts.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics constructs and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duckserver_rpc_requests_total",
			Help: "Total number of RPC procedure calls.",
		}, []string{"procedure", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "duckserver_rpc_request_duration_seconds",
			Help:    "RPC procedure call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure", "status"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// New builds a middleware that records each call's outcome and latency.
// procedureName extracts a human-readable procedure name from the request
// context for labeling.
func New[C any](m *Metrics, procedureName func(C) string) duckserver.Middleware[C] {
	return func(ctx C, next duckserver.Next[C]) duckserver.Result {
		name := "unknown"
		if procedureName != nil {
			name = procedureName(ctx)
		}

		start := time.Now()
		result := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if !result.IsOK() {
			status = "error"
		}

		m.requests.WithLabelValues(name, status).Inc()
		m.duration.WithLabelValues(name, status).Observe(elapsed)

		return result
	}
}
