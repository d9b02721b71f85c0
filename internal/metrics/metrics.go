// Package metrics exposes Prometheus counters and histograms for the booking
// proxy.  All methods are safe on a nil receiver.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes.
const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalid       = "invalid"
	OutcomeRejected      = "rejected"
	OutcomeForwardFailed = "forward_failed"
	OutcomeError         = "error"
)

// BookingMetrics tracks appointment requests and HTTP traffic.
type BookingMetrics struct {
	bookingsTotal   *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewBookingMetrics registers the collectors on reg, or on the default
// registerer when reg is nil.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recoverykneads",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Appointment requests by outcome and service",
		}, []string{"outcome", "service"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recoverykneads",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recoverykneads",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.requestsTotal, m.requestDuration)
	return m
}

// ObserveBooking counts one appointment request.
func (m *BookingMetrics) ObserveBooking(outcome, service string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome, service).Inc()
}

// ObserveRequest records one HTTP request.  route is the route pattern, not
// the raw path.
func (m *BookingMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}
