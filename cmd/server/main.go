package main

import (
	"context"
	"delivery-manifest-service/internal/adapters/cache"
	"delivery-manifest-service/internal/adapters/geocoding"
	"delivery-manifest-service/internal/adapters/notify"
	"delivery-manifest-service/internal/adapters/repositories"
	"delivery-manifest-service/internal/api"
	"delivery-manifest-service/internal/config"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/db"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/metrics"
	"delivery-manifest-service/internal/ports"
	"delivery-manifest-service/internal/recovery"
	"delivery-manifest-service/internal/services"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (SQL store, ORS, webhook) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.OpenDriver(cfg.DBDriver, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Schema init is idempotent; run it on startup for local runs.
	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		return err
	}

	layouts, err := recovery.NewRegistry()
	if err != nil {
		return err
	}
	if cfg.LayoutsPath != "" {
		if err := layouts.LoadFile(cfg.LayoutsPath); err != nil {
			return err
		}
	}
	if _, err := layouts.Get(cfg.DefaultLayout); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := repositories.NewStore(sqlDB)

	var notifier ports.DriverNotifier = notify.LogNotifier{Logger: logger}
	if cfg.NotifyWebhookURL != "" {
		notifier, err = notify.NewWebhookNotifier(cfg.NotifyWebhookURL, nil)
		if err != nil {
			return err
		}
	}

	importer := services.NewRouteImporter(store, logger,
		services.WithBudget(ports.TxBudget{Acquire: cfg.ImportAcquireTimeout, Execute: cfg.ImportExecTimeout}),
		services.WithNotifier(notifier),
		services.WithMetrics(m),
	)
	defer importer.Wait()

	pipeline := services.NewManifestImporter(services.ManifestImporterConfig{
		Layouts:       layouts,
		Routes:        importer,
		DefaultLayout: cfg.DefaultLayout,
		Logger:        logger,
		Metrics:       m,
	})

	// Geocoding is optional; without a key imported customers stay unresolved.
	var customerGeocoder *services.CustomerGeocoder
	if cfg.ORSAPIKey != "" {
		geo, err := geocoding.NewORSGeocoder(cfg.ORSAPIKey, cache.NewSQLGeocodeCache(sqlDB), logger)
		if err != nil {
			return err
		}
		customerGeocoder = services.NewCustomerGeocoder(store, geo, logger, m)
	} else {
		logger.Warn("ORS_API_KEY not set; customer geocoding disabled")
	}

	router := api.NewRouter(api.Deps{
		Pipeline:            pipeline,
		Routes:              services.NewRouteQueries(store, domain.Coordinates{Lon: cfg.DepotLon, Lat: cfg.DepotLat}),
		Deliveries:          services.NewDeliveryStatusService(store, logger, nil),
		Geocoder:            customerGeocoder,
		DefaultLayout:       cfg.DefaultLayout,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		ImportRatePerMinute: cfg.ImportRatePerMinute,
		AllowedOrigins:      cfg.CORSOrigins,
		Logger:              logger,
		Metrics:             m,
		Gatherer:            reg,
	})

	// Write timeout covers a full import: upload, extraction and the transaction budget.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
