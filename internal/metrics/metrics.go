// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tcn"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	LinkRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "links",
			Name:      "redirects_total",
			Help:      "Short link resolutions by cache outcome",
		},
		[]string{"cache"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connections",
			Help:      "Open live feed websocket connections",
		},
	)

	LiveBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "broadcasts_total",
			Help:      "Breaking news broadcasts by broker backend and outcome",
		},
		[]string{"backend", "status"},
	)

	LiveDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "dropped_clients_total",
			Help:      "Websocket clients dropped because their send buffer was full",
		},
	)

	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "requests_total",
			Help:      "Machine translation calls by outcome",
		},
		[]string{"status"},
	)

	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interactions",
			Name:      "total",
			Help:      "Toggle style interactions by kind and resulting action",
		},
		[]string{"kind", "action"},
	)

	HookErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "hook_errors_total",
			Help:      "Publish hook failures by hook name",
		},
		[]string{"hook"},
	)
)
