package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/extract"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/metrics"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/recovery"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ManifestImporter runs the whole pipeline for one uploaded document:
// extract text, recover fields with a layout profile, import in one transaction.
type ManifestImporter struct {
	extractor     *extract.TextExtractor
	sheets        *extract.SheetReader
	layouts       *recovery.Registry
	engine        *recovery.Engine
	routes        *RouteImporter
	defaultLayout string
	columns       recovery.SheetColumns
	now           func() time.Time
	logger        *zap.Logger
	metrics       *metrics.Registry
}

type ManifestImporterConfig struct {
	Layouts       *recovery.Registry
	Routes        *RouteImporter
	DefaultLayout string
	Logger        *zap.Logger
	Metrics       *metrics.Registry
	Now           func() time.Time
}

func NewManifestImporter(cfg ManifestImporterConfig) *ManifestImporter {
	logger := logging.OrNop(cfg.Logger)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	return &ManifestImporter{
		extractor:     extract.NewTextExtractor(logger),
		sheets:        extract.NewSheetReader(),
		layouts:       cfg.Layouts,
		engine:        recovery.NewEngine(logger, now),
		routes:        cfg.Routes,
		defaultLayout: cfg.DefaultLayout,
		columns:       recovery.DefaultSheetColumns,
		now:           now,
		logger:        logger,
		metrics:       m,
	}
}

// Layouts exposes the registered profile names.
func (s *ManifestImporter) Layouts() []string {
	return s.layouts.Names()
}

// ImportDocument imports a PDF or plain-text manifest as one route.
// An empty layout selects the configured default profile.
func (s *ManifestImporter) ImportDocument(
	ctx context.Context,
	tenantID string,
	layout string,
	doc extract.Document,
) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "pipeline.ImportDocument")(&err)

	source := string(extract.DetectKind(doc))
	start := time.Now()
	defer func() {
		s.metrics.ImportDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
		s.metrics.ImportsTotal.WithLabelValues(source, outcome(err)).Inc()
	}()

	name := strings.TrimSpace(layout)
	if name == "" {
		name = s.defaultLayout
	}
	profile, err := s.layouts.Get(name)
	if err != nil {
		return nil, fmt.Errorf("import document %q: %w", doc.Name, err)
	}

	text, err := s.extractor.ExtractText(ctx, doc, profile.TextOptions())
	if err != nil {
		return nil, err
	}

	manifest, err := s.engine.Recover(ctx, text, profile)
	if err != nil {
		return nil, fmt.Errorf("import document %q: %w", doc.Name, err)
	}

	return s.routes.ImportRoute(ctx, tenantID, manifest)
}

// Map an import error to a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, domain.ErrNoDeliveriesRecognized):
		return "no_deliveries"
	case errors.Is(err, domain.ErrInvalidImport), errors.Is(err, domain.ErrUnknownLayout):
		return "invalid"
	case errors.Is(err, domain.ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, domain.ErrTransactionFailure):
		return "transaction_failed"
	default:
		return "failed"
	}
}
