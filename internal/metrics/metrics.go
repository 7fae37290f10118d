package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "analogous"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Business metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of analogy generations",
		},
		[]string{"status"}, // "success" or "error"
	)

	EntitlementRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_rejections_total",
			Help:      "Total number of generations refused by entitlement checks",
		},
		[]string{"reason"}, // "quota", "rate_limit" or "storage"
	)

	StreakAdvances = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_advances_total",
			Help:      "Total number of streak counter advances",
		},
	)

	StreakResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_resets_total",
			Help:      "Total number of streak breaks detected",
		},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total number of billing webhook events received",
		},
		[]string{"type", "outcome"}, // outcome: "applied", "replay", "orphan", "skipped"
	)
)

// Provider metrics (aggregate totals - no user label to avoid cardinality)
var (
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Total number of generation provider calls",
		},
		[]string{"provider", "status"}, // provider: "ai" or "image"
	)

	AITokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_total",
			Help:      "Total AI tokens consumed",
		},
		[]string{"type"}, // "input" or "output"
	)
)
