package dto

import "time"

type UpdateStatusRequest struct {
	Status   string `json:"status"`
	ProofRef string `json:"proof_ref"`
	Reason   string `json:"reason"`
}

type DeliveryResponse struct {
	ID              string    `json:"id"`
	RouteID         string    `json:"route_id"`
	CustomerID      string    `json:"customer_id"`
	InvoiceNumber   string    `json:"invoice_number"`
	Sequence        int       `json:"sequence"`
	Status          string    `json:"status"`
	StatusChangedAt time.Time `json:"status_changed_at"`
	ProofRef        string    `json:"proof_ref,omitempty"`
	FailureReason   string    `json:"failure_reason,omitempty"`
}

type GeocodeResponse struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}
