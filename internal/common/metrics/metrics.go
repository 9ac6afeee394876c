// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_classifier_requests_total",
			Help: "Total number of calls to the classification service",
		},
		[]string{"endpoint", "outcome"},
	)

	ClassifierRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_classifier_request_duration_seconds",
			Help:    "Duration of classification service calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SessionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_sessions_finished_total",
			Help: "Total number of sessions that reached a terminal phase",
		},
		[]string{"outcome"},
	)

	ProtocolAnomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_protocol_anomalies_total",
			Help: "Total number of protocol anomalies recorded",
		},
		[]string{"kind"},
	)

	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_phase_transitions_total",
			Help: "Total number of session phase transitions",
		},
		[]string{"from", "to"},
	)

	SessionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_session_errors_total",
			Help: "Total number of errors handled by the session controller",
		},
		[]string{"error_code", "category"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_sessions_active",
			Help: "Number of sessions currently between start and a terminal phase",
		},
	)
)
