package recovery

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/obs"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Engine turns extracted manifest text into a route header and line items.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(logger *zap.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{logger: logging.OrNop(logger), now: now}
}

// Recover applies the profile to text. Zero line items is an error carrying a
// hint on whether the document looked like this layout at all.
func (e *Engine) Recover(ctx context.Context, text string, p *Profile) (_ domain.Manifest, err error) {
	defer obs.Time(ctx, "recovery.Recover")(&err)

	header := p.RecoverHeader(text, e.now())

	deliveries, unmatched, err := p.RecoverDeliveries(text)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("recover manifest: %w", err)
	}

	if len(unmatched) > 0 {
		e.logger.Debug("invoice-like tokens left unmatched",
			zap.String("profile", p.Name),
			zap.Int("count", len(unmatched)),
			zap.Strings("tokens", unmatched),
		)
	}

	if len(deliveries) == 0 {
		return domain.Manifest{}, &domain.NoDeliveriesError{
			Profile:          p.Name,
			LayoutLooksRight: p.hasMarkers(text),
		}
	}

	e.logger.Info("manifest recovered",
		zap.String("profile", p.Name),
		zap.String("route", header.Name),
		zap.Int("deliveries", len(deliveries)),
	)

	return domain.Manifest{Header: header, Deliveries: deliveries}, nil
}

func (p *Profile) hasMarkers(text string) bool {
	if len(p.Markers) == 0 {
		return false
	}
	for _, m := range p.Markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}
