package repositories

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// The DDL is shared by SQLite and Postgres; it sticks to types both accept.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		document TEXT NOT NULL DEFAULT '',
		document_key TEXT NOT NULL DEFAULT '',
		name_key TEXT NOT NULL DEFAULT ''
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_tenant_document ON drivers(tenant_id, document_key);`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_tenant_name ON drivers(tenant_id, name_key);`,
	`
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		plate TEXT NOT NULL,
		plate_key TEXT NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_tenant_plate ON vehicles(tenant_id, plate_key);`,
	`
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		trade_name TEXT NOT NULL,
		legal_name TEXT NOT NULL,
		document TEXT NOT NULL,
		document_key TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		address_details TEXT NOT NULL,
		lon DOUBLE PRECISION NOT NULL DEFAULT 0,
		lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		geocode_attempted_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_customers_tenant_document ON customers(tenant_id, document_key);`,
	`CREATE INDEX IF NOT EXISTS idx_customers_tenant_trade_name ON customers(tenant_id, trade_name);`,
	`
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		route_date TIMESTAMP NOT NULL,
		driver_id TEXT,
		vehicle_id TEXT,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_routes_tenant_date ON routes(tenant_id, route_date);`,
	`
	CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		route_id TEXT NOT NULL REFERENCES routes(id),
		customer_id TEXT NOT NULL REFERENCES customers(id),
		driver_id TEXT,
		invoice_number TEXT NOT NULL,
		volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		declared_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		priority TEXT NOT NULL,
		product TEXT NOT NULL DEFAULT '',
		salesperson_name TEXT NOT NULL DEFAULT '',
		sequence INTEGER NOT NULL,
		status TEXT NOT NULL,
		status_changed_at TIMESTAMP,
		proof_ref TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_deliveries_route ON deliveries(route_id, sequence);`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`,
}

// Initialize the database schema. Safe to run on every start.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type DriverSeed struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

type VehicleSeed struct {
	Plate string `json:"plate"`
}

type TenantSeed struct {
	TenantID string        `json:"tenant_id"`
	Drivers  []DriverSeed  `json:"drivers"`
	Vehicles []VehicleSeed `json:"vehicles"`
}

// Populate drivers and vehicles from a JSON file:
//
//	[{"tenant_id": "...", "drivers": [{"name": "...", "document": "..."}], "vehicles": [{"plate": "..."}]}]
//
// Rows already present (same tenant and key) are skipped, so seeding is repeatable.
func SeedFromJSON(ctx context.Context, db *sqlx.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed fleet: read %q: %w", jsonPath, err)
	}

	var data []TenantSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed fleet: parse json: %w", err)
	}

	store := NewStore(db)
	for i, tenant := range data {
		tenantID := strings.TrimSpace(tenant.TenantID)
		if tenantID == "" {
			return fmt.Errorf("seed fleet: tenant at index %d: tenant_id cannot be empty", i+1)
		}

		for j, d := range tenant.Drivers {
			if strings.TrimSpace(d.Name) == "" {
				return fmt.Errorf("seed fleet: tenant %s driver #%d: name cannot be empty", tenantID, j+1)
			}
			err := store.CreateDriver(ctx, &domain.Driver{
				ID:       uuid.NewString(),
				TenantID: tenantID,
				Name:     strings.TrimSpace(d.Name),
				Document: strings.TrimSpace(d.Document),
			})
			if err != nil && !errors.Is(err, ErrDuplicate) {
				return fmt.Errorf("seed fleet: %w", err)
			}
		}

		for j, v := range tenant.Vehicles {
			if strings.TrimSpace(v.Plate) == "" {
				return fmt.Errorf("seed fleet: tenant %s vehicle #%d: plate cannot be empty", tenantID, j+1)
			}
			err := store.CreateVehicle(ctx, &domain.Vehicle{
				ID:       uuid.NewString(),
				TenantID: tenantID,
				Plate:    strings.ToUpper(strings.TrimSpace(v.Plate)),
			})
			if err != nil && !errors.Is(err, ErrDuplicate) {
				return fmt.Errorf("seed fleet: %w", err)
			}
		}
	}

	return nil
}
