// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventx_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "method", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventx_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventx_bookings_total",
			Help: "Booking attempts by path and outcome",
		},
		[]string{"path", "outcome"},
	)

	paymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventx_payment_verifications_total",
			Help: "Payment verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	gatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventx_gateway_call_duration_seconds",
			Help:    "Latency of payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"operation"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventx_notifications_total",
			Help: "Booking notifications by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	reconciledOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventx_reconciled_orders_total",
			Help: "Stale payment orders resolved by the reconciler",
		},
		[]string{"status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Booking records a booking attempt; path is "free" or "paid".
func Booking(path, outcome string) {
	bookings.WithLabelValues(path, outcome).Inc()
}

func PaymentVerification(outcome string) {
	paymentVerifications.WithLabelValues(outcome).Inc()
}

func GatewayCall(operation string, started time.Time) {
	gatewayLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Notification records a notification event; stage is "publish" or "deliver".
func Notification(stage, outcome string) {
	notifications.WithLabelValues(stage, outcome).Inc()
}

func ReconciledOrder(status string) {
	reconciledOrders.WithLabelValues(status).Inc()
}
