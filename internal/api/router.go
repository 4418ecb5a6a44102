package api

import (
	"delivery-manifest-service/internal/api/handlers"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/metrics"
	"delivery-manifest-service/internal/services"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer needs.
type Deps struct {
	Pipeline      *services.ManifestImporter
	Routes        *services.RouteQueries
	Deliveries    *services.DeliveryStatusService
	Geocoder      *services.CustomerGeocoder
	DefaultLayout string

	MaxUploadBytes      int64
	ImportRatePerMinute int
	// CORS origins for the dispatcher UI; empty allows any.
	AllowedOrigins []string

	Logger   *zap.Logger
	Metrics  *metrics.Registry
	Gatherer prometheus.Gatherer
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	logger := logging.OrNop(d.Logger)
	m := d.Metrics
	if m == nil {
		m = metrics.Nop()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	importHandler := &handlers.ImportHandler{Pipeline: d.Pipeline, MaxUploadBytes: d.MaxUploadBytes}
	layoutHandler := &handlers.LayoutHandler{Pipeline: d.Pipeline, DefaultLayout: d.DefaultLayout}
	routeHandler := &handlers.RouteHandler{Queries: d.Routes}
	deliveryHandler := &handlers.DeliveryHandler{Status: d.Deliveries}
	customerHandler := &handlers.CustomerHandler{Geocoder: d.Geocoder}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe(logger, m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/layouts", layoutHandler.List)

	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.ImportRatePerMinute > 0 {
				r.Use(newTenantLimiter(d.ImportRatePerMinute).Middleware)
			}
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/imports/manifest", importHandler.Manifest)
			r.Post("/imports/spreadsheet", importHandler.Spreadsheet)
		})

		r.Get("/routes", routeHandler.List)
		r.Get("/routes/{routeID}/stops", routeHandler.Stops)
		r.Patch("/deliveries/{deliveryID}/status", deliveryHandler.UpdateStatus)
		r.Post("/customers/geocode", customerHandler.Geocode)
	})

	return r
}
