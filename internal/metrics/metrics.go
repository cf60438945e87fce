// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travel_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Reconciliations counts VerifyAndFinalize outcomes: confirmed, pending,
	// refunded, duplicate, rejected.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_reconciliations_total",
		Help: "Payment verification outcomes.",
	}, []string{"outcome"})

	RefundFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_refund_failures_total",
		Help: "Compensating refunds the gateway rejected.",
	})

	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_sweep_runs_total",
		Help: "Completed sweeper passes.",
	})

	SweepItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_sweep_items_total",
		Help: "Pending bookings handled by the sweeper, by result.",
	}, []string{"result"})
)
