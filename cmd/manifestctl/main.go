package main

import (
	"context"
	"delivery-manifest-service/internal/adapters/repositories"
	"delivery-manifest-service/internal/config"
	"delivery-manifest-service/internal/extract"
	"delivery-manifest-service/internal/platform/db"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/ports"
	"delivery-manifest-service/internal/recovery"
	"delivery-manifest-service/internal/services"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// manifestctl imports a local manifest (pdf, txt or xlsx) for one tenant.
func main() {
	var (
		tenant = flag.String("tenant", "", "tenant id (required)")
		file   = flag.String("file", "", "manifest file to import (required)")
		layout = flag.String("layout", "", "layout profile for pdf/txt manifests (defaults to DEFAULT_LAYOUT)")
		dryRun = flag.Bool("dry-run", false, "print the recovered manifest without importing it")
	)
	flag.Parse()

	if *tenant == "" || *file == "" {
		printError("Error: --tenant and --file are required\n")
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, *tenant, *file, *layout, *dryRun); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, tenantID, path, layout string, dryRun bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	doc := extract.Document{Name: filepath.Base(path), Content: content}

	layouts, err := recovery.NewRegistry()
	if err != nil {
		return err
	}
	if cfg.LayoutsPath != "" {
		if err := layouts.LoadFile(cfg.LayoutsPath); err != nil {
			return err
		}
	}
	if layout == "" {
		layout = cfg.DefaultLayout
	}

	if dryRun {
		return preview(ctx, logger, layouts, layout, doc)
	}

	sqlDB, err := db.OpenDriver(cfg.DBDriver, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		return err
	}

	pipeline := services.NewManifestImporter(services.ManifestImporterConfig{
		Layouts: layouts,
		Routes: services.NewRouteImporter(repositories.NewStore(sqlDB), logger,
			services.WithBudget(ports.TxBudget{Acquire: cfg.ImportAcquireTimeout, Execute: cfg.ImportExecTimeout}),
		),
		DefaultLayout: cfg.DefaultLayout,
		Logger:        logger,
	})

	if extract.DetectKind(doc) == extract.KindSpreadsheet {
		summary, err := pipeline.ImportSpreadsheet(ctx, tenantID, doc)
		if err != nil {
			return err
		}
		return printJSON(summary)
	}

	route, err := pipeline.ImportDocument(ctx, tenantID, layout, doc)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"route_id":   route.ID,
		"name":       route.Name,
		"date":       route.Date,
		"driver_id":  route.Driver.Ptr(),
		"vehicle_id": route.Vehicle.Ptr(),
		"deliveries": len(route.DeliveryIDs),
	})
}

// Show what the layout recovers from the document.
func preview(ctx context.Context, logger *zap.Logger, layouts *recovery.Registry, layout string, doc extract.Document) error {
	profile, err := layouts.Get(layout)
	if err != nil {
		return err
	}

	text, err := extract.NewTextExtractor(logger).ExtractText(ctx, doc, profile.TextOptions())
	if err != nil {
		return err
	}

	m, err := recovery.NewEngine(logger, nil).Recover(ctx, text, profile)
	if err != nil {
		return err
	}
	return printJSON(m)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
