package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the service's Prometheus collectors.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ImportsTotal       *prometheus.CounterVec
	ImportDuration     *prometheus.HistogramVec
	DeliveriesImported prometheus.Counter
	CustomersCreated   prometheus.Counter
	CustomersGeocoded  *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// New registers every collector on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)

	return &Registry{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifest_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "manifest_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint", "method"},
		),

		ImportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifest_imports_total",
				Help: "Route imports by source (pdf, text, spreadsheet) and outcome",
			},
			[]string{"source", "outcome"},
		),
		ImportDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "manifest_import_duration_seconds",
				Help:    "End-to-end duration of one document import",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"source"},
		),
		DeliveriesImported: f.NewCounter(prometheus.CounterOpts{
			Name: "manifest_deliveries_imported_total",
			Help: "Deliveries committed by route imports",
		}),
		CustomersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "manifest_customers_created_total",
			Help: "Customers created on first sight in a manifest",
		}),
		CustomersGeocoded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifest_customers_geocoded_total",
				Help: "Customer geocoding attempts by outcome",
			},
			[]string{"outcome"},
		),
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifest_driver_notifications_total",
				Help: "Best-effort driver notifications by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Nop returns collectors registered on a throwaway registry.
func Nop() *Registry {
	return New(prometheus.NewRegistry())
}
