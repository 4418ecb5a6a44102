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
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RouteImporter persists one manifest as a route with its deliveries,
// all inside a single budgeted transaction.
type RouteImporter struct {
	tx            ports.Transactor
	budget        ports.TxBudget
	now           func() time.Time
	logger        *zap.Logger
	metrics       *metrics.Registry
	notifier      ports.DriverNotifier
	notifyTimeout time.Duration

	// In-flight notifications, drained by Wait.
	wg sync.WaitGroup
}

type ImporterOption func(*RouteImporter)

func WithBudget(b ports.TxBudget) ImporterOption {
	return func(s *RouteImporter) { s.budget = b }
}

func WithClock(now func() time.Time) ImporterOption {
	return func(s *RouteImporter) { s.now = now }
}

func WithNotifier(n ports.DriverNotifier) ImporterOption {
	return func(s *RouteImporter) { s.notifier = n }
}

func WithMetrics(m *metrics.Registry) ImporterOption {
	return func(s *RouteImporter) { s.metrics = m }
}

func NewRouteImporter(tx ports.Transactor, logger *zap.Logger, opts ...ImporterOption) *RouteImporter {
	s := &RouteImporter{
		tx:            tx,
		budget:        ports.DefaultTxBudget(),
		now:           time.Now,
		logger:        logging.OrNop(logger),
		metrics:       metrics.Nop(),
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportRoute creates the route, resolves its driver and vehicle once, then
// creates one PENDING delivery per line item in manifest order.
//
// Any failure rolls everything back and is returned as *domain.ImportError.
// Importing the same manifest twice creates two routes.
func (s *RouteImporter) ImportRoute(
	ctx context.Context,
	tenantID string,
	m domain.Manifest,
) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "importer.ImportRoute")(&err)

	header, err := validateManifest(tenantID, m)
	if err != nil {
		return nil, err
	}

	var (
		route   *domain.Route
		created int
	)

	err = s.tx.WithinTx(ctx, s.budget, func(ctx context.Context, repo ports.ImportRepository) error {
		created = 0
		resolver := NewIdentityResolver(repo, s.now)

		driver, err := resolver.ResolveDriver(ctx, tenantID, header.DriverIdentifier)
		if err != nil {
			return err
		}
		vehicle, err := resolver.ResolveVehicle(ctx, tenantID, header.VehiclePlate)
		if err != nil {
			return err
		}

		now := s.now()
		rt := &domain.Route{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			Name:      header.Name,
			Date:      domain.PinRouteDate(header.Date),
			Driver:    driver,
			Vehicle:   vehicle,
			Status:    domain.RoutePlanned,
			CreatedAt: now,
		}
		if err := repo.CreateRoute(ctx, rt); err != nil {
			return err
		}

		for i, c := range m.Deliveries {
			customerID, isNew, err := resolver.ResolveCustomer(ctx, tenantID, c)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}

			d := &domain.Delivery{
				ID:              uuid.NewString(),
				TenantID:        tenantID,
				RouteID:         rt.ID,
				CustomerID:      customerID,
				Driver:          driver,
				InvoiceNumber:   strings.TrimSpace(c.InvoiceNumber),
				Volume:          c.Volume,
				Weight:          c.Weight,
				Value:           c.Value,
				Priority:        c.Priority,
				Product:         c.Product,
				SalespersonName: c.SalespersonName,
				Sequence:        i + 1,
				Status:          domain.DeliveryPending,
				StatusChangedAt: now,
				CreatedAt:       now,
			}
			if d.Priority == "" {
				d.Priority = domain.PriorityNormal
			}
			if err := repo.CreateDelivery(ctx, d); err != nil {
				return err
			}
			rt.DeliveryIDs = append(rt.DeliveryIDs, d.ID)
		}

		route = rt
		return nil
	})
	if err != nil {
		return nil, &domain.ImportError{
			Route:          header.Name,
			BudgetExceeded: errors.Is(err, domain.ErrBudgetExceeded),
			Cause:          err,
		}
	}

	s.metrics.DeliveriesImported.Add(float64(len(route.DeliveryIDs)))
	s.metrics.CustomersCreated.Add(float64(created))

	s.logger.Info("route imported",
		zap.String("tenant_id", tenantID),
		zap.String("route_id", route.ID),
		zap.String("route", route.Name),
		zap.Int("deliveries", len(route.DeliveryIDs)),
		zap.Int("customers_created", created),
		zap.Bool("driver_resolved", route.Driver.IsResolved()),
		zap.Bool("vehicle_resolved", route.Vehicle.IsResolved()),
	)

	s.notifyAssigned(ctx, route)
	return route, nil
}

// Wait blocks until every pending driver notification has finished.
func (s *RouteImporter) Wait() {
	s.wg.Wait()
}

// Notify the route's driver after commit. Runs detached from the request and
// never affects the import result.
func (s *RouteImporter) notifyAssigned(ctx context.Context, route *domain.Route) {
	driverID, ok := route.Driver.ID()
	if s.notifier == nil || !ok {
		return
	}

	a := ports.RouteAssignment{
		TenantID:  route.TenantID,
		DriverID:  driverID,
		RouteID:   route.ID,
		RouteName: route.Name,
		RouteDate: route.Date,
		Stops:     len(route.DeliveryIDs),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyRouteAssigned(nctx, a); err != nil {
			s.metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			s.logger.Warn("driver notification failed",
				zap.String("route_id", a.RouteID),
				zap.String("driver_id", a.DriverID),
				zap.Error(err),
			)
			return
		}
		s.metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}()
}

// Check the manifest before opening a transaction and fill in a missing name.
func validateManifest(tenantID string, m domain.Manifest) (domain.RouteHeader, error) {
	h := m.Header
	h.DriverIdentifier = strings.TrimSpace(h.DriverIdentifier)
	h.VehiclePlate = strings.ToUpper(strings.TrimSpace(h.VehiclePlate))
	h.Name = strings.TrimSpace(h.Name)

	if strings.TrimSpace(tenantID) == "" {
		return h, fmt.Errorf("import route: tenant is required: %w", domain.ErrInvalidImport)
	}
	if h.Date.IsZero() {
		return h, fmt.Errorf("import route: route date is required: %w", domain.ErrInvalidImport)
	}
	if len(m.Deliveries) == 0 {
		return h, fmt.Errorf("import route: at least one delivery is required: %w", domain.ErrInvalidImport)
	}
	for i, c := range m.Deliveries {
		if strings.TrimSpace(c.InvoiceNumber) == "" {
			return h, fmt.Errorf("import route: delivery %d: invoice number is required: %w", i+1, domain.ErrInvalidImport)
		}
	}
	if h.Name == "" {
		h.Name = domain.SynthesizeRouteName(h.VehiclePlate, h.DriverIdentifier, h.Date)
	}
	return h, nil
}
