package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CarrierErrors   *prometheus.CounterVec
	QuotesReturned  *prometheus.HistogramVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_requests_total",
				Help: "Total number of requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebridge_request_duration_seconds",
				Help:    "Request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_carrier_errors_total",
				Help: "Total carrier errors by carrier and error kind",
			},
			[]string{"carrier", "kind"},
		),
		QuotesReturned: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebridge_quotes_returned",
				Help:    "Number of quotes returned per request by operation",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, kind string) {
	m.CarrierErrors.WithLabelValues(carrier, kind).Inc()
}

// RecordQuotes records how many quotes an operation produced.
func (m *Metrics) RecordQuotes(operation string, count int) {
	m.QuotesReturned.WithLabelValues(operation).Observe(float64(count))
}
