package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/ports"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Addresses this short or shorter never overwrite a stored address.
const minAddressLen = 3

// IdentityResolver maps manifest identities onto tenant records.
// It is bound to one import transaction through repo.
type IdentityResolver struct {
	repo  ports.ImportRepository
	now   func() time.Time
	newID func() string
}

func NewIdentityResolver(repo ports.ImportRepository, now func() time.Time) *IdentityResolver {
	if now == nil {
		now = time.Now
	}
	return &IdentityResolver{
		repo:  repo,
		now:   now,
		newID: uuid.NewString,
	}
}

// Return the driver matching identifier (document or name), or Unresolved.
func (r *IdentityResolver) ResolveDriver(ctx context.Context, tenantID, identifier string) (domain.Resolution, error) {
	if domain.NormalizeIdentifier(identifier) == "" {
		return domain.Unresolved(), nil
	}

	d, err := r.repo.FindDriverByTenantAndIdentifier(ctx, tenantID, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unresolved(), nil
	}
	if err != nil {
		return domain.Unresolved(), fmt.Errorf("resolve driver: %w", err)
	}
	return domain.Resolved(d.ID), nil
}

// Return the vehicle matching plate, or Unresolved.
func (r *IdentityResolver) ResolveVehicle(ctx context.Context, tenantID, plate string) (domain.Resolution, error) {
	if domain.NormalizePlate(plate) == "" {
		return domain.Unresolved(), nil
	}

	v, err := r.repo.FindVehicleByTenantAndPlate(ctx, tenantID, plate)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unresolved(), nil
	}
	if err != nil {
		return domain.Unresolved(), fmt.Errorf("resolve vehicle: %w", err)
	}
	return domain.Resolved(v.ID), nil
}

// Find or create the customer for one line item.
//
// Matching is exact: document first (raw or normalized), then trade or legal name.
// A matched customer gets the line's address when it is long enough; its
// location is never touched. An unknown customer is created with placeholder
// contact data and an unresolved location.
func (r *IdentityResolver) ResolveCustomer(
	ctx context.Context,
	tenantID string,
	c domain.CandidateDelivery,
) (customerID string, created bool, err error) {
	name := strings.TrimSpace(c.CustomerName)
	if name == "" {
		return "", false, fmt.Errorf("resolve customer: invoice %s: empty name: %w", c.InvoiceNumber, domain.ErrInvalidImport)
	}

	existing, err := r.findCustomer(ctx, tenantID, name, c.CustomerDocument)
	if err != nil {
		return "", false, err
	}

	if existing != nil {
		addr := strings.TrimSpace(c.CustomerAddressText)
		if utf8.RuneCountInString(addr) > minAddressLen {
			details := domain.AddressDetails{
				Street:    addr,
				Source:    domain.AddressSourceImport,
				UpdatedAt: r.now(),
			}
			if err := r.repo.UpdateCustomerAddress(ctx, tenantID, existing.ID, details); err != nil {
				return "", false, fmt.Errorf("resolve customer %q: %w", name, err)
			}
		}
		return existing.ID, false, nil
	}

	c.CustomerName = name
	c.CustomerAddressText = strings.TrimSpace(c.CustomerAddressText)
	customer := domain.NewImportedCustomer(r.newID(), tenantID, c, r.now())
	if err := r.repo.CreateCustomer(ctx, customer); err != nil {
		return "", false, fmt.Errorf("resolve customer %q: %w", name, err)
	}
	return customer.ID, true, nil
}

func (r *IdentityResolver) findCustomer(ctx context.Context, tenantID, name, document string) (*domain.Customer, error) {
	if !domain.IsPlaceholderDocument(document) {
		raw := strings.TrimSpace(document)
		found, err := r.repo.FindCustomerByTenantAndDocument(ctx, tenantID, raw, domain.NormalizeDocument(raw))
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolve customer %q: %w", name, err)
		}
	}

	found, err := r.repo.FindCustomerByTenantAndName(ctx, tenantID, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve customer %q: %w", name, err)
	}
	return found, nil
}
