package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the engage service
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Business Metrics
	SignupsTotal          prometheus.Counter
	WithdrawalsTotal      prometheus.Counter
	DetailUpdatesTotal    prometheus.CounterVec
	LedgerRequestsTotal   prometheus.CounterVec
	LedgerRequestDuration prometheus.Histogram
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engage_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engage_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "engage_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		SignupsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "engage_signups_total",
				Help: "Total successful activity sign-ups",
			},
		),
		WithdrawalsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "engage_withdrawals_total",
				Help: "Total successful activity withdrawals",
			},
		),
		DetailUpdatesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engage_detail_updates_total",
				Help: "Total detail updates by template id",
			},
			[]string{"template_id"},
		),
		LedgerRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engage_ledger_requests_total",
				Help: "Total ledger service calls by outcome",
			},
			[]string{"outcome"},
		),
		LedgerRequestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "engage_ledger_request_duration_seconds",
				Help:    "Ledger call latency distribution in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
	}
}
