// Package observability provides Prometheus metrics for the weft
// server, plus the HTTP handler that exposes them.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts handled requests by method and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weft_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weft_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ConnectionsActive tracks connections currently being handled.
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weft_connections_active",
			Help: "Connections in flight",
		},
	)

	// ConnectionsRejectedTotal counts connections refused by the
	// admission limiter.
	ConnectionsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weft_connections_rejected_total",
			Help: "Connections rejected at admission",
		},
	)

	// SessionsActive tracks live sessions in the session store.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weft_sessions_active",
			Help: "Live sessions",
		},
	)

	// SessionsEvictedTotal counts sessions removed by the cleanup sweep.
	SessionsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weft_sessions_evicted_total",
			Help: "Sessions evicted as idle",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ConnectionsActive,
		ConnectionsRejectedTotal,
		SessionsActive,
		SessionsEvictedTotal,
	)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
