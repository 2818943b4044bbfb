package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/parkspot/internal/notify"
	"github.com/felixgeelhaar/parkspot/internal/router"
)

// Metrics holds all Prometheus metrics for Parkspot
type Metrics struct {
	// Backend API metrics
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrors          *prometheus.CounterVec

	// Navigation guard metrics
	Navigations *prometheus.CounterVec

	// Notification metrics
	Notifications *prometheus.CounterVec

	// Dev proxy metrics
	ProxyRequests *prometheus.CounterVec
	ProxyDuration *prometheus.HistogramVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkspot_api_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parkspot_api_request_duration_seconds",
				Help:    "Backend API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"method", "endpoint"},
		),
		APIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkspot_api_errors_total",
				Help: "Total number of failed backend API requests",
			},
			[]string{"method", "endpoint", "class"},
		),

		Navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkspot_navigations_total",
				Help: "Total number of navigation guard decisions",
			},
			[]string{"route", "reason"},
		),

		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkspot_notifications_total",
				Help: "Total number of notifications shown",
			},
			[]string{"severity"},
		),

		ProxyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkspot_proxy_requests_total",
				Help: "Total number of requests forwarded by the dev proxy",
			},
			[]string{"method", "status"},
		),
		ProxyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parkspot_proxy_request_duration_seconds",
				Help:    "Dev proxy round trip in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkspot_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// ObserveRequest records one backend call. Status 0 means no response
// was received.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	m.APIRequests.WithLabelValues(method, endpoint, statusLabel(status)).Inc()
	m.APIRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
	if class := errorClass(status); class != "" {
		m.APIErrors.WithLabelValues(method, endpoint, class).Inc()
	}
}

// ObserveNavigation records a guard decision
func (m *Metrics) ObserveNavigation(route string, decision router.Decision) {
	m.Navigations.WithLabelValues(route, decision.Reason).Inc()
}

// ObserveNotification records a queued notification
func (m *Metrics) ObserveNotification(n notify.Notification) {
	m.Notifications.WithLabelValues(string(n.Severity)).Inc()
}

// ObserveProxy records one proxied request
func (m *Metrics) ObserveProxy(method string, status int, elapsed time.Duration) {
	m.ProxyRequests.WithLabelValues(method, statusLabel(status)).Inc()
	m.ProxyDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordError counts an error by its structured code
func (m *Metrics) RecordError(code, component string) {
	if code == "" {
		code = "unknown"
	}
	m.Errors.WithLabelValues(code, component).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "network_error"
	}
	return strconv.Itoa(status)
}

func errorClass(status int) string {
	switch {
	case status == 0:
		return "network"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return ""
	}
}
