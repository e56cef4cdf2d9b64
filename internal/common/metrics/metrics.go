// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_check_attempts_total",
			Help: "Total number of check attempts, manual and automatic",
		},
		[]string{"check", "trigger"},
	)

	CheckOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_check_outcomes_total",
			Help: "Total number of completed check attempts by resulting status",
		},
		[]string{"check", "status", "failure_type"},
	)

	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_check_duration_seconds",
			Help: "Duration of collaborator calls in seconds",
		},
		[]string{"check"},
	)

	ChecksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onboarding_checks_in_flight",
			Help: "Number of collaborator calls currently running per check",
		},
		[]string{"check"},
	)

	RetriesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_retries_scheduled_total",
			Help: "Total number of automatic retries armed",
		},
		[]string{"check"},
	)

	RetriesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_retries_skipped_total",
			Help: "Total number of automatic retries that fired after being superseded",
		},
		[]string{"check"},
	)

	LedgerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_ledger_events_total",
			Help: "Total number of ledger events appended",
		},
		[]string{"outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_http_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_http_request_duration_seconds",
			Help: "Duration of API requests in seconds",
		},
		[]string{"method", "route"},
	)
)
