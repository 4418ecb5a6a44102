package repositories

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/obs"
	"fmt"
	"time"
)

// Return the tenant's routes, newest route date first.
func (s *Store) ListRoutes(ctx context.Context, tenantID string) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, "store.ListRoutes")(&err)

	var rows []routeRow
	q := s.db.Rebind(`
	SELECT ` + routeColumns + `
	FROM routes
	WHERE tenant_id = ?
	ORDER BY route_date DESC, created_at DESC, id;
	`)
	if err := s.db.SelectContext(ctx, &rows, q, tenantID); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	routes := make([]*domain.Route, 0, len(rows))
	for _, row := range rows {
		routes = append(routes, row.toDomain())
	}
	return routes, nil
}

// Return one route with its delivery ids in sequence order.
func (s *Store) GetRoute(ctx context.Context, tenantID, routeID string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "store.GetRoute")(&err)

	var row routeRow
	q := s.db.Rebind(`SELECT ` + routeColumns + ` FROM routes WHERE tenant_id = ? AND id = ?;`)
	if err := s.db.GetContext(ctx, &row, q, tenantID, routeID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get route %s", routeID))
	}
	route := row.toDomain()

	q = s.db.Rebind(`SELECT id FROM deliveries WHERE tenant_id = ? AND route_id = ? ORDER BY sequence;`)
	if err := s.db.SelectContext(ctx, &route.DeliveryIDs, q, tenantID, routeID); err != nil {
		return nil, fmt.Errorf("get route %s: delivery ids: %w", routeID, err)
	}
	return route, nil
}

type stopRow struct {
	DeliveryID     string  `db:"delivery_id"`
	Sequence       int     `db:"sequence"`
	InvoiceNumber  string  `db:"invoice_number"`
	Status         string  `db:"status"`
	CustomerID     string  `db:"customer_id"`
	CustomerName   string  `db:"trade_name"`
	AddressDetails string  `db:"address_details"`
	Lon            float64 `db:"lon"`
	Lat            float64 `db:"lat"`
}

func (s *Store) ListRouteStops(ctx context.Context, tenantID, routeID string) (_ []domain.RouteStop, err error) {
	defer obs.Time(ctx, "store.ListRouteStops")(&err)

	var rows []stopRow
	q := s.db.Rebind(`
	SELECT
		d.id AS delivery_id,
		d.sequence,
		d.invoice_number,
		d.status,
		c.id AS customer_id,
		c.trade_name,
		c.address_details,
		c.lon,
		c.lat
	FROM deliveries d
	JOIN customers c ON c.id = d.customer_id
	WHERE d.tenant_id = ? AND d.route_id = ?
	ORDER BY d.sequence;
	`)
	if err := s.db.SelectContext(ctx, &rows, q, tenantID, routeID); err != nil {
		return nil, fmt.Errorf("list route stops %s: %w", routeID, err)
	}

	stops := make([]domain.RouteStop, 0, len(rows))
	for _, r := range rows {
		c, err := customerRow{ID: r.CustomerID, AddressDetails: r.AddressDetails}.toDomain()
		if err != nil {
			return nil, fmt.Errorf("list route stops %s: %w", routeID, err)
		}
		stops = append(stops, domain.RouteStop{
			DeliveryID:    r.DeliveryID,
			Sequence:      r.Sequence,
			InvoiceNumber: r.InvoiceNumber,
			CustomerID:    r.CustomerID,
			CustomerName:  r.CustomerName,
			Address:       c.AddressDetails.Street,
			Location:      domain.Coordinates{Lon: r.Lon, Lat: r.Lat},
			Status:        domain.DeliveryStatus(r.Status),
		})
	}
	return stops, nil
}

func (s *Store) GetCustomer(ctx context.Context, tenantID, customerID string) (_ *domain.Customer, err error) {
	defer obs.Time(ctx, "store.GetCustomer")(&err)

	var row customerRow
	q := s.db.Rebind(`SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = ? AND id = ?;`)
	if err := s.db.GetContext(ctx, &row, q, tenantID, customerID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get customer %s", customerID))
	}
	return row.toDomain()
}

func (s *Store) GetDelivery(ctx context.Context, tenantID, deliveryID string) (_ *domain.Delivery, err error) {
	defer obs.Time(ctx, "store.GetDelivery")(&err)

	var row deliveryRow
	q := s.db.Rebind(`SELECT ` + deliveryColumns + ` FROM deliveries WHERE tenant_id = ? AND id = ?;`)
	if err := s.db.GetContext(ctx, &row, q, tenantID, deliveryID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get delivery %s", deliveryID))
	}
	return row.toDomain(), nil
}

func (s *Store) ListRouteDeliveries(ctx context.Context, tenantID, routeID string) (_ []*domain.Delivery, err error) {
	defer obs.Time(ctx, "store.ListRouteDeliveries")(&err)

	var rows []deliveryRow
	q := s.db.Rebind(`
	SELECT ` + deliveryColumns + `
	FROM deliveries
	WHERE tenant_id = ? AND route_id = ?
	ORDER BY sequence;
	`)
	if err := s.db.SelectContext(ctx, &rows, q, tenantID, routeID); err != nil {
		return nil, fmt.Errorf("list route deliveries %s: %w", routeID, err)
	}

	out := make([]*domain.Delivery, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateDeliveryStatus(ctx context.Context, d *domain.Delivery) (err error) {
	defer obs.Time(ctx, "store.UpdateDeliveryStatus")(&err)

	q := s.db.Rebind(`
	UPDATE deliveries
	SET status = ?, status_changed_at = ?, proof_ref = ?, failure_reason = ?
	WHERE tenant_id = ? AND id = ?;
	`)
	res, err := s.db.ExecContext(ctx, q,
		string(d.Status), nullTime(d.StatusChangedAt), d.ProofRef, d.FailureReason, d.TenantID, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update delivery %s status: %w", d.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update delivery %s status: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateRouteStatus(ctx context.Context, r *domain.Route) (err error) {
	defer obs.Time(ctx, "store.UpdateRouteStatus")(&err)

	q := s.db.Rebind(`UPDATE routes SET status = ? WHERE tenant_id = ? AND id = ?;`)
	res, err := s.db.ExecContext(ctx, q, string(r.Status), r.TenantID, r.ID)
	if err != nil {
		return fmt.Errorf("update route %s status: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update route %s status: %w", r.ID, domain.ErrNotFound)
	}
	return nil
}

// Return customers still at the unresolved location, oldest first.
func (s *Store) ListUnresolvedCustomers(ctx context.Context, tenantID string, limit int) (_ []*domain.Customer, err error) {
	defer obs.Time(ctx, "store.ListUnresolvedCustomers")(&err)

	if limit <= 0 {
		limit = 100
	}

	var rows []customerRow
	q := s.db.Rebind(`
	SELECT ` + customerColumns + `
	FROM customers
	WHERE tenant_id = ? AND lon = 0 AND lat = 0
	ORDER BY CASE WHEN geocode_attempted_at IS NULL THEN 0 ELSE 1 END,
		geocode_attempted_at, created_at, id
	LIMIT ?;
	`)
	if err := s.db.SelectContext(ctx, &rows, q, tenantID, limit); err != nil {
		return nil, fmt.Errorf("list unresolved customers: %w", err)
	}

	out := make([]*domain.Customer, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("list unresolved customers: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) UpdateCustomerLocation(
	ctx context.Context,
	tenantID string,
	customerID string,
	loc domain.Coordinates,
) (err error) {
	defer obs.Time(ctx, "store.UpdateCustomerLocation")(&err)

	q := s.db.Rebind(`
	UPDATE customers SET lon = ?, lat = ?
	WHERE tenant_id = ? AND id = ? AND lon = 0 AND lat = 0;
	`)
	res, err := s.db.ExecContext(ctx, q, loc.Lon, loc.Lat, tenantID, customerID)
	if err != nil {
		return fmt.Errorf("update customer %s location: %w", customerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer %s location: %w", customerID, err)
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: tell a missing customer from one located meanwhile.
	if _, err := s.GetCustomer(ctx, tenantID, customerID); err != nil {
		return fmt.Errorf("update customer %s location: %w", customerID, err)
	}
	return fmt.Errorf("update customer %s location: %w", customerID, domain.ErrAlreadyLocated)
}

func (s *Store) MarkGeocodeAttempt(ctx context.Context, tenantID, customerID string, at time.Time) (err error) {
	defer obs.Time(ctx, "store.MarkGeocodeAttempt")(&err)

	q := s.db.Rebind(`UPDATE customers SET geocode_attempted_at = ? WHERE tenant_id = ? AND id = ?;`)
	if _, err := s.db.ExecContext(ctx, q, at.UTC(), tenantID, customerID); err != nil {
		return fmt.Errorf("mark customer %s geocode attempt: %w", customerID, err)
	}
	return nil
}
