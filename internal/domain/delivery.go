package domain

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Parse a priority label in English or Portuguese. Unknown or blank labels are NORMAL.
func ParsePriority(s string) Priority {
	switch strings.ToUpper(strings.TrimSpace(FoldAccents(s))) {
	case "HIGH", "ALTA":
		return PriorityHigh
	case "URGENT", "URGENTE":
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"
	DeliveryReturned  DeliveryStatus = "RETURNED"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:   {DeliveryInTransit, DeliveryFailed},
	DeliveryInTransit: {DeliveryDelivered, DeliveryFailed, DeliveryReturned},
	DeliveryFailed:    {DeliveryReturned},
}

// Parse a status name, case-insensitively.
func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case DeliveryPending, DeliveryInTransit, DeliveryDelivered, DeliveryFailed, DeliveryReturned:
		return st, true
	}
	return "", false
}

func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryReturned
}

func (s DeliveryStatus) CanTransition(to DeliveryStatus) bool {
	for _, next := range deliveryTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// One recovered line item. Immutable once built.
type CandidateDelivery struct {
	InvoiceNumber       string
	CustomerName        string
	CustomerDocument    string
	CustomerAddressText string
	City                string
	Volume              float64
	Weight              float64
	Value               float64
	Priority            Priority
	Product             string
	SalespersonName     string
}

// A manifest reduced to its route header and line items.
type Manifest struct {
	Header     RouteHeader
	Deliveries []CandidateDelivery
}

type Delivery struct {
	ID              string
	TenantID        string
	RouteID         string
	CustomerID      string
	Driver          Resolution
	InvoiceNumber   string
	Volume          float64
	Weight          float64
	Value           float64
	Priority        Priority
	Product         string
	SalespersonName string
	Sequence        int
	Status          DeliveryStatus
	StatusChangedAt time.Time
	ProofRef        string
	FailureReason   string
	CreatedAt       time.Time
}

// Move the delivery to a new status, recording when it happened.
// A failure requires a reason; proof is kept for delivered parcels.
func (d *Delivery) Transition(to DeliveryStatus, at time.Time, proofRef, reason string) error {
	if !d.Status.CanTransition(to) {
		return fmt.Errorf("delivery %s: %s -> %s: %w", d.ID, d.Status, to, ErrInvalidTransition)
	}
	if to == DeliveryFailed && strings.TrimSpace(reason) == "" {
		return fmt.Errorf("delivery %s: failure reason is required: %w", d.ID, ErrInvalidTransition)
	}

	d.Status = to
	d.StatusChangedAt = at
	if to == DeliveryDelivered {
		d.ProofRef = strings.TrimSpace(proofRef)
	}
	if to == DeliveryFailed {
		d.FailureReason = strings.TrimSpace(reason)
	}
	return nil
}
