package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	CarrierErrors       *prometheus.CounterVec
	AvailabilityByState *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide metrics set. Collectors register
// against the default Prometheus registry exactly once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics()
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiprate_requests_total",
				Help: "Total number of requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shiprate_request_duration_seconds",
				Help:    "Request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CarrierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiprate_carrier_errors_total",
				Help: "Total carrier API errors by error kind",
			},
			[]string{"carrier", "kind"},
		),
		AvailabilityByState: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiprate_availability_checks_total",
				Help: "Availability check outcomes; unreachable signals a carrier outage rather than a missing route",
			},
			[]string{"service", "state"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, kind string) {
	m.CarrierErrors.WithLabelValues(carrier, kind).Inc()
}

// RecordAvailability records the typed outcome of an availability check.
func (m *Metrics) RecordAvailability(service, state string) {
	m.AvailabilityByState.WithLabelValues(service, state).Inc()
}
