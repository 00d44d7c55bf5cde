package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Read  = "read"
	Write = "write"
)

var (
	OpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duplex_open_connections",
			Help: "Number of started and not yet closed connections",
		},
	)

	Bytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplex_transferred_bytes_total",
			Help: "Total number of bytes read or written",
		},
		[]string{"direction"},
	)

	FlowSamples = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duplex_flow_bytes_per_minute",
			Help:    "Moving average of the per-connection throughput, sampled every flow bucket",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
		[]string{"direction"},
	)

	FlowEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplex_flow_evictions_total",
			Help: "Connections closed because their throughput fell below the minimum",
		},
		[]string{"direction"},
	)

	Exchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplex_http_exchanges_total",
			Help: "Completed HTTP exchanges",
		},
		[]string{"role"},
	)

	Violations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplex_http_violations_total",
			Help: "HTTP exchanges aborted because of a malformed or oversized message",
		},
		[]string{"direction"},
	)

	AcceptErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplex_accept_errors_total",
			Help: "Failed accept calls",
		},
	)
)
