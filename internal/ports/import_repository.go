package ports

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"time"
)

// Port: tenant-scoped persistence used by a route import.
// Every call runs on the ambient transaction handed out by Transactor.
// Finders return domain.ErrNotFound when nothing matches.
type ImportRepository interface {
	FindDriverByTenantAndIdentifier(ctx context.Context, tenantID, identifier string) (*domain.Driver, error)
	FindVehicleByTenantAndPlate(ctx context.Context, tenantID, plate string) (*domain.Vehicle, error)
	// Match either the raw document or its normalized key.
	FindCustomerByTenantAndDocument(ctx context.Context, tenantID, raw, normalized string) (*domain.Customer, error)
	// Match the trade name or the legal name exactly.
	FindCustomerByTenantAndName(ctx context.Context, tenantID, name string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	// Overwrite the address text only; stored coordinates are left alone.
	UpdateCustomerAddress(ctx context.Context, tenantID, customerID string, addr domain.AddressDetails) error
	CreateRoute(ctx context.Context, r *domain.Route) error
	CreateDelivery(ctx context.Context, d *domain.Delivery) error
}

// Time limits for one import transaction.
type TxBudget struct {
	// Waiting for a pooled connection.
	Acquire time.Duration
	// Running every statement and committing.
	Execute time.Duration
}

func DefaultTxBudget() TxBudget {
	return TxBudget{Acquire: 5 * time.Second, Execute: 20 * time.Second}
}

// Port: runs fn inside one transaction bounded by budget.
// A nil error from fn commits; anything else rolls back.
// An elapsed budget is reported as domain.ErrBudgetExceeded.
type Transactor interface {
	WithinTx(ctx context.Context, budget TxBudget, fn func(ctx context.Context, repo ImportRepository) error) error
}
