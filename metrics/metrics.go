// Package metrics holds every Prometheus collector the service exports.
// Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "restaurant"

// OrdersPlacedTotal counts committed orders.
var OrdersPlacedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders committed.",
	},
)

// OrderRejectionsTotal counts placeOrder calls that wrote nothing.
// Label reason: the error code (e.g. "item_unavailable").
var OrderRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_rejections_total",
		Help:      "Total number of rejected order placements, by reason.",
	},
	[]string{"reason"},
)

// OrderPaymentsTotal counts payOrder outcomes.
// Label result: "applied" or "already_paid".
var OrderPaymentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_payments_total",
		Help:      "Total number of pay-order calls, by result.",
	},
	[]string{"result"},
)

// OrderStatusTransitionsTotal counts recorded status changes.
var OrderStatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Total number of order status transitions, by previous and new status.",
	},
	[]string{"from", "to"},
)

// RecommendationFailuresTotal counts failed model calls by internal kind.
var RecommendationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendation_failures_total",
		Help:      "Total number of failed recipe suggestion calls, by failure kind.",
	},
	[]string{"kind"},
)

// RecommendationDuration measures the external model call.
var RecommendationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_duration_seconds",
		Help:      "Latency of the external recipe suggestion call.",
		Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
	},
)

// HTTPRequestsTotal counts requests by route template, method and status code.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures handler latency by route template.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
