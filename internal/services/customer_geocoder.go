package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/metrics"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/ports"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultGeocodeBatch = 50

type GeocodeSummary struct {
	Resolved int
	Failed   int
	Skipped  int
}

// CustomerGeocoder fills in locations of customers created by imports.
// Customers that already have a location are never touched. Every customer
// tried without success is marked so the next batch starts with fresh ones.
type CustomerGeocoder struct {
	store    ports.CustomerLocationStore
	geocoder ports.Geocoder
	logger   *zap.Logger
	metrics  *metrics.Registry
	now      func() time.Time
}

func NewCustomerGeocoder(
	store ports.CustomerLocationStore,
	geocoder ports.Geocoder,
	logger *zap.Logger,
	m *metrics.Registry,
) *CustomerGeocoder {
	if m == nil {
		m = metrics.Nop()
	}
	return &CustomerGeocoder{
		store:    store,
		geocoder: geocoder,
		logger:   logging.OrNop(logger),
		metrics:  m,
		now:      time.Now,
	}
}

// GeocodePending resolves up to limit customers still at {0,0}.
// A failed lookup is counted and logged; the batch continues.
func (g *CustomerGeocoder) GeocodePending(ctx context.Context, tenantID string, limit int) (_ GeocodeSummary, err error) {
	defer obs.Time(ctx, "customers.GeocodePending")(&err)

	if limit <= 0 {
		limit = defaultGeocodeBatch
	}

	customers, err := g.store.ListUnresolvedCustomers(ctx, tenantID, limit)
	if err != nil {
		return GeocodeSummary{}, fmt.Errorf("geocode customers: %w", err)
	}

	var sum GeocodeSummary
	for _, c := range customers {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		addr := strings.TrimSpace(c.AddressDetails.Street)
		if addr == "" {
			sum.Skipped++
			g.metrics.CustomersGeocoded.WithLabelValues("skipped").Inc()
			if err := g.markAttempt(ctx, tenantID, c.ID); err != nil {
				return sum, err
			}
			continue
		}

		loc, err := g.geocoder.Geocode(ctx, addr)
		if err == nil && loc.IsUnresolved() {
			err = errors.New("geocoder returned an empty location")
		}
		if err != nil {
			sum.Failed++
			g.metrics.CustomersGeocoded.WithLabelValues("failed").Inc()
			g.logger.Warn("customer geocoding failed",
				zap.String("customer_id", c.ID),
				zap.Error(err),
			)
			if err := g.markAttempt(ctx, tenantID, c.ID); err != nil {
				return sum, err
			}
			continue
		}

		err = g.store.UpdateCustomerLocation(ctx, tenantID, c.ID, loc)
		if errors.Is(err, domain.ErrAlreadyLocated) {
			// Located by a concurrent run.
			sum.Skipped++
			g.metrics.CustomersGeocoded.WithLabelValues("skipped").Inc()
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("geocode customers: %w", err)
		}
		sum.Resolved++
		g.metrics.CustomersGeocoded.WithLabelValues("resolved").Inc()
	}

	return sum, nil
}

func (g *CustomerGeocoder) markAttempt(ctx context.Context, tenantID, customerID string) error {
	if err := g.store.MarkGeocodeAttempt(ctx, tenantID, customerID, g.now()); err != nil {
		return fmt.Errorf("geocode customers: %w", err)
	}
	return nil
}
