package repositories

import (
	"database/sql"
	"delivery-manifest-service/internal/domain"
	"encoding/json"
	"fmt"
	"time"
)

type driverRow struct {
	ID       string `db:"id"`
	TenantID string `db:"tenant_id"`
	Name     string `db:"name"`
	Document string `db:"document"`
}

func (r driverRow) toDomain() *domain.Driver {
	return &domain.Driver{ID: r.ID, TenantID: r.TenantID, Name: r.Name, Document: r.Document}
}

type vehicleRow struct {
	ID       string `db:"id"`
	TenantID string `db:"tenant_id"`
	Plate    string `db:"plate"`
}

type customerRow struct {
	ID             string    `db:"id"`
	TenantID       string    `db:"tenant_id"`
	TradeName      string    `db:"trade_name"`
	LegalName      string    `db:"legal_name"`
	Document       string    `db:"document"`
	DocumentKey    string    `db:"document_key"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	AddressDetails string    `db:"address_details"`
	Lon            float64   `db:"lon"`
	Lat            float64   `db:"lat"`
	CreatedAt      time.Time `db:"created_at"`
}

const customerColumns = `id, tenant_id, trade_name, legal_name, document, document_key,
	email, phone, address_details, lon, lat, created_at`

func (r customerRow) toDomain() (*domain.Customer, error) {
	var addr domain.AddressDetails
	if r.AddressDetails != "" {
		if err := json.Unmarshal([]byte(r.AddressDetails), &addr); err != nil {
			return nil, fmt.Errorf("customer %s: decode address details: %w", r.ID, err)
		}
	}

	return &domain.Customer{
		ID:             r.ID,
		TenantID:       r.TenantID,
		TradeName:      r.TradeName,
		LegalName:      r.LegalName,
		Document:       r.Document,
		DocumentKey:    r.DocumentKey,
		Email:          r.Email,
		Phone:          r.Phone,
		AddressDetails: addr,
		Location:       domain.Coordinates{Lon: r.Lon, Lat: r.Lat},
		CreatedAt:      r.CreatedAt,
	}, nil
}

func encodeAddress(a domain.AddressDetails) (string, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode address details: %w", err)
	}
	return string(b), nil
}

type routeRow struct {
	ID        string         `db:"id"`
	TenantID  string         `db:"tenant_id"`
	Name      string         `db:"name"`
	Date      time.Time      `db:"route_date"`
	DriverID  sql.NullString `db:"driver_id"`
	VehicleID sql.NullString `db:"vehicle_id"`
	Status    string         `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
}

const routeColumns = `id, tenant_id, name, route_date, driver_id, vehicle_id, status, created_at`

func (r routeRow) toDomain() *domain.Route {
	return &domain.Route{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Date:      r.Date.UTC(),
		Driver:    resolutionOf(r.DriverID),
		Vehicle:   resolutionOf(r.VehicleID),
		Status:    domain.RouteStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

type deliveryRow struct {
	ID              string         `db:"id"`
	TenantID        string         `db:"tenant_id"`
	RouteID         string         `db:"route_id"`
	CustomerID      string         `db:"customer_id"`
	DriverID        sql.NullString `db:"driver_id"`
	InvoiceNumber   string         `db:"invoice_number"`
	Volume          float64        `db:"volume"`
	Weight          float64        `db:"weight"`
	Value           float64        `db:"declared_value"`
	Priority        string         `db:"priority"`
	Product         string         `db:"product"`
	SalespersonName string         `db:"salesperson_name"`
	Sequence        int            `db:"sequence"`
	Status          string         `db:"status"`
	StatusChangedAt sql.NullTime   `db:"status_changed_at"`
	ProofRef        string         `db:"proof_ref"`
	FailureReason   string         `db:"failure_reason"`
	CreatedAt       time.Time      `db:"created_at"`
}

const deliveryColumns = `id, tenant_id, route_id, customer_id, driver_id, invoice_number,
	volume, weight, declared_value, priority, product, salesperson_name, sequence,
	status, status_changed_at, proof_ref, failure_reason, created_at`

func (r deliveryRow) toDomain() *domain.Delivery {
	d := &domain.Delivery{
		ID:              r.ID,
		TenantID:        r.TenantID,
		RouteID:         r.RouteID,
		CustomerID:      r.CustomerID,
		Driver:          resolutionOf(r.DriverID),
		InvoiceNumber:   r.InvoiceNumber,
		Volume:          r.Volume,
		Weight:          r.Weight,
		Value:           r.Value,
		Priority:        domain.Priority(r.Priority),
		Product:         r.Product,
		SalespersonName: r.SalespersonName,
		Sequence:        r.Sequence,
		Status:          domain.DeliveryStatus(r.Status),
		ProofRef:        r.ProofRef,
		FailureReason:   r.FailureReason,
		CreatedAt:       r.CreatedAt,
	}
	if r.StatusChangedAt.Valid {
		d.StatusChangedAt = r.StatusChangedAt.Time
	}
	return d
}

func resolutionOf(s sql.NullString) domain.Resolution {
	if !s.Valid || s.String == "" {
		return domain.Unresolved()
	}
	return domain.Resolved(s.String)
}

func nullID(r domain.Resolution) sql.NullString {
	id, ok := r.ID()
	return sql.NullString{String: id, Valid: ok}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
