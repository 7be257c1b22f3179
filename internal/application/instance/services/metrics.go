package services

import "github.com/prometheus/client_golang/prometheus"

const (
	checkOutcomeApplied   = "applied"
	checkOutcomeUnchanged = "unchanged"
	checkOutcomeIgnored   = "ignored"
	checkOutcomeError     = "error"
	checkOutcomeConflict  = "conflict"

	// The control plane rejected the API token; every check fails until it is rotated.
	checkOutcomeUnauthorized = "unauthorized"
)

var (
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hatchery_monitor_sweep_duration_seconds",
			Help:    "Duration of deployment monitor sweeps",
			Buckets: prometheus.DefBuckets,
		},
	)

	instanceChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hatchery_monitor_checks_total",
			Help: "Deployment status checks by outcome",
		},
		[]string{"outcome"},
	)

	instancesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hatchery_instances",
			Help: "Persisted instances by lifecycle status",
		},
		[]string{"status"},
	)

	trackedInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hatchery_monitor_tracked_instances",
			Help: "Instances with an active per-instance tracker",
		},
	)
)

func init() {
	prometheus.MustRegister(sweepDuration, instanceChecksTotal, instancesByStatus, trackedInstances)
}
