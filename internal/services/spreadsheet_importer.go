package services

import (
	"context"
	"delivery-manifest-service/internal/extract"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/recovery"
	"time"

	"go.uber.org/zap"
)

// Outcome of a spreadsheet import. Each route commits or fails on its own.
type ImportSummary struct {
	SuccessCount int
	RouteIDs     []string
	Errors       []RouteError
}

type RouteError struct {
	RouteLabel string
	Message    string
}

// ImportSpreadsheet imports every route of a workbook. Groups with an
// unusable row and groups whose transaction fails are reported in the
// summary; the remaining routes are still imported.
func (s *ManifestImporter) ImportSpreadsheet(
	ctx context.Context,
	tenantID string,
	doc extract.Document,
) (_ ImportSummary, err error) {
	defer obs.Time(ctx, "pipeline.ImportSpreadsheet")(&err)

	const source = string(extract.KindSpreadsheet)
	start := time.Now()
	defer func() {
		s.metrics.ImportDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	rows, err := s.sheets.ReadRows(ctx, doc)
	if err != nil {
		s.metrics.ImportsTotal.WithLabelValues(source, outcome(err)).Inc()
		return ImportSummary{}, err
	}

	summary := ImportSummary{RouteIDs: []string{}, Errors: []RouteError{}}

	for _, g := range recovery.MapRows(rows, s.columns, s.now()) {
		if g.Err != nil {
			s.metrics.ImportsTotal.WithLabelValues(source, outcome(g.Err)).Inc()
			summary.Errors = append(summary.Errors, RouteError{RouteLabel: g.Label, Message: g.Err.Error()})
			continue
		}

		route, err := s.routes.ImportRoute(ctx, tenantID, g.Manifest)
		s.metrics.ImportsTotal.WithLabelValues(source, outcome(err)).Inc()
		if err != nil {
			s.logger.Warn("spreadsheet route import failed",
				zap.String("tenant_id", tenantID),
				zap.String("route", g.Label),
				zap.Error(err),
			)
			summary.Errors = append(summary.Errors, RouteError{RouteLabel: g.Label, Message: err.Error()})
			continue
		}

		summary.SuccessCount++
		summary.RouteIDs = append(summary.RouteIDs, route.ID)
	}

	return summary, nil
}
