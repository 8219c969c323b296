// Package metrics provides Prometheus metrics for the ad radar pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TopicsTotal counts processed topics by outcome (parsed, fallback, failed).
	TopicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adradar",
			Name:      "topics_total",
			Help:      "Total number of topics queried, by outcome",
		},
		[]string{"outcome"},
	)

	// QueryDuration measures generation service call duration.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "adradar",
			Name:      "query_duration_seconds",
			Help:      "Duration of generation service calls in seconds",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120},
		},
	)

	// DeliveriesTotal counts endpoint deliveries by channel and status.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adradar",
			Name:      "deliveries_total",
			Help:      "Total number of report deliveries",
		},
		[]string{"channel", "status"},
	)

	// RunsTotal counts pipeline runs by status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adradar",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	// LastRunRecords tracks how many records the last run collected.
	LastRunRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "adradar",
			Name:      "last_run_records",
			Help:      "Number of insight records collected by the last run",
		},
	)
)

// RecordTopic records one topic outcome.
func RecordTopic(outcome string, seconds float64) {
	TopicsTotal.WithLabelValues(outcome).Inc()
	QueryDuration.Observe(seconds)
}

// RecordDelivery records one endpoint delivery.
func RecordDelivery(channel string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	DeliveriesTotal.WithLabelValues(channel, status).Inc()
}
