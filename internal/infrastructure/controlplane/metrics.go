package controlplane

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeSuccess     = "success"
	outcomeHTTPError   = "http_error"
	outcomeAPIError    = "graphql_error"
	outcomeTransport   = "transport_error"
	outcomeRateLimited = "rate_limited"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hatchery_controlplane_requests_total",
			Help: "Control plane calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hatchery_controlplane_request_duration_seconds",
			Help:    "Latency of control plane calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}
