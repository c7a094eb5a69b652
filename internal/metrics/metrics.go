package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		},
		[]string{"method", "status"},
	)

	bookingAdmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "booking_admissions_total",
			Help:      "Booking admission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	authFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stayhub",
			Name:      "auth_failures_total",
			Help:      "Requests rejected by the authentication gate.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingAdmissions, authFailures)
	})
}

// IncHTTP increments the request counter for a method/status pair.
func IncHTTP(method, status string) {
	httpRequests.WithLabelValues(method, status).Inc()
}

// IncBooking increments the admission counter for an outcome label
// (admitted, conflict, rejected).
func IncBooking(outcome string) {
	bookingAdmissions.WithLabelValues(outcome).Inc()
}

// IncAuthFailure counts a rejected authentication attempt.
func IncAuthFailure() {
	authFailures.Inc()
}
