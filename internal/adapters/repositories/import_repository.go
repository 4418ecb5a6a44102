package repositories

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/ports"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// txRepository implements ports.ImportRepository on one open transaction.
type txRepository struct {
	q sqlx.ExtContext
}

var _ ports.ImportRepository = (*txRepository)(nil)

func (r *txRepository) FindDriverByTenantAndIdentifier(
	ctx context.Context,
	tenantID string,
	identifier string,
) (*domain.Driver, error) {
	key := domain.NormalizeIdentifier(identifier)
	if key == "" {
		return nil, fmt.Errorf("find driver: empty identifier: %w", domain.ErrNotFound)
	}

	var row driverRow
	q := r.q.Rebind(`
	SELECT id, tenant_id, name, document
	FROM drivers
	WHERE tenant_id = ? AND (document_key = ? OR name_key = ?)
	ORDER BY id
	LIMIT 1;
	`)
	if err := sqlx.GetContext(ctx, r.q, &row, q, tenantID, key, key); err != nil {
		return nil, notFound(err, fmt.Sprintf("find driver %q", identifier))
	}
	return row.toDomain(), nil
}

func (r *txRepository) FindVehicleByTenantAndPlate(
	ctx context.Context,
	tenantID string,
	plate string,
) (*domain.Vehicle, error) {
	key := domain.NormalizePlate(plate)
	if key == "" {
		return nil, fmt.Errorf("find vehicle: empty plate: %w", domain.ErrNotFound)
	}

	var row vehicleRow
	q := r.q.Rebind(`
	SELECT id, tenant_id, plate
	FROM vehicles
	WHERE tenant_id = ? AND plate_key = ?
	ORDER BY id
	LIMIT 1;
	`)
	if err := sqlx.GetContext(ctx, r.q, &row, q, tenantID, key); err != nil {
		return nil, notFound(err, fmt.Sprintf("find vehicle %q", plate))
	}
	return &domain.Vehicle{ID: row.ID, TenantID: row.TenantID, Plate: row.Plate}, nil
}

func (r *txRepository) FindCustomerByTenantAndDocument(
	ctx context.Context,
	tenantID string,
	raw string,
	normalized string,
) (*domain.Customer, error) {
	var row customerRow
	q := r.q.Rebind(`
	SELECT ` + customerColumns + `
	FROM customers
	WHERE tenant_id = ? AND (document = ? OR document_key = ?)
	ORDER BY created_at, id
	LIMIT 1;
	`)
	if err := sqlx.GetContext(ctx, r.q, &row, q, tenantID, strings.TrimSpace(raw), normalized); err != nil {
		return nil, notFound(err, "find customer by document")
	}
	return row.toDomain()
}

func (r *txRepository) FindCustomerByTenantAndName(
	ctx context.Context,
	tenantID string,
	name string,
) (*domain.Customer, error) {
	var row customerRow
	q := r.q.Rebind(`
	SELECT ` + customerColumns + `
	FROM customers
	WHERE tenant_id = ? AND (trade_name = ? OR legal_name = ?)
	ORDER BY created_at, id
	LIMIT 1;
	`)
	if err := sqlx.GetContext(ctx, r.q, &row, q, tenantID, name, name); err != nil {
		return nil, notFound(err, fmt.Sprintf("find customer %q", name))
	}
	return row.toDomain()
}

func (r *txRepository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	addr, err := encodeAddress(c.AddressDetails)
	if err != nil {
		return fmt.Errorf("create customer %q: %w", c.TradeName, err)
	}

	q := r.q.Rebind(`
	INSERT INTO customers (` + customerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = r.q.ExecContext(ctx, q,
		c.ID, c.TenantID, c.TradeName, c.LegalName, c.Document, c.DocumentKey,
		c.Email, c.Phone, addr, c.Location.Lon, c.Location.Lat, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create customer %q: %w", c.TradeName, err)
	}
	return nil
}

func (r *txRepository) UpdateCustomerAddress(
	ctx context.Context,
	tenantID string,
	customerID string,
	addr domain.AddressDetails,
) error {
	encoded, err := encodeAddress(addr)
	if err != nil {
		return fmt.Errorf("update customer %s address: %w", customerID, err)
	}

	q := r.q.Rebind(`UPDATE customers SET address_details = ? WHERE tenant_id = ? AND id = ?;`)
	res, err := r.q.ExecContext(ctx, q, encoded, tenantID, customerID)
	if err != nil {
		return fmt.Errorf("update customer %s address: %w", customerID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update customer %s address: %w", customerID, domain.ErrNotFound)
	}
	return nil
}

func (r *txRepository) CreateRoute(ctx context.Context, rt *domain.Route) error {
	q := r.q.Rebind(`
	INSERT INTO routes (` + routeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err := r.q.ExecContext(ctx, q,
		rt.ID, rt.TenantID, rt.Name, rt.Date, nullID(rt.Driver), nullID(rt.Vehicle), string(rt.Status), rt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create route %q: %w", rt.Name, err)
	}
	return nil
}

func (r *txRepository) CreateDelivery(ctx context.Context, d *domain.Delivery) error {
	q := r.q.Rebind(`
	INSERT INTO deliveries (` + deliveryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err := r.q.ExecContext(ctx, q,
		d.ID, d.TenantID, d.RouteID, d.CustomerID, nullID(d.Driver), d.InvoiceNumber,
		d.Volume, d.Weight, d.Value, string(d.Priority), d.Product, d.SalespersonName, d.Sequence,
		string(d.Status), nullTime(d.StatusChangedAt), d.ProofRef, d.FailureReason, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create delivery %q: %w", d.InvoiceNumber, err)
	}
	return nil
}
