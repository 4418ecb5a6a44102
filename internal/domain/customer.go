package domain

import "time"

type AddressDetails struct {
	Street    string    `json:"street"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Customer of a tenant. Created from manifests with placeholder contact data
// and an unresolved location; geocoding fills Location later.
type Customer struct {
	ID             string
	TenantID       string
	TradeName      string
	LegalName      string
	Document       string
	DocumentKey    string
	Email          string
	Phone          string
	AddressDetails AddressDetails
	Location       Coordinates
	CreatedAt      time.Time
}

// Build a customer record for a name first seen on a manifest.
func NewImportedCustomer(id, tenantID string, c CandidateDelivery, now time.Time) *Customer {
	doc := PlaceholderDocument
	if !IsPlaceholderDocument(c.CustomerDocument) {
		doc = c.CustomerDocument
	}

	return &Customer{
		ID:          id,
		TenantID:    tenantID,
		TradeName:   c.CustomerName,
		LegalName:   c.CustomerName,
		Document:    doc,
		DocumentKey: NormalizeDocument(doc),
		Email:       PlaceholderEmail,
		Phone:       PlaceholderPhone,
		AddressDetails: AddressDetails{
			Street:    c.CustomerAddressText,
			Source:    AddressSourceImport,
			UpdatedAt: now,
		},
		Location:  Coordinates{},
		CreatedAt: now,
	}
}
