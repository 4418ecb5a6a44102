package handlers

import (
	"delivery-manifest-service/internal/api/dto"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/services"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// DeliveryHandler drives the delivery status workflow.
type DeliveryHandler struct {
	Status *services.DeliveryStatusService
}

func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	status, ok := domain.ParseDeliveryStatus(req.Status)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "status must be one of PENDING, IN_TRANSIT, DELIVERED, FAILED, RETURNED")
		return
	}

	d, err := h.Status.Update(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "deliveryID"), services.StatusUpdate{
		Status:   status,
		ProofRef: req.ProofRef,
		Reason:   req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, "update delivery status", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DeliveryResponse{
		ID:              d.ID,
		RouteID:         d.RouteID,
		CustomerID:      d.CustomerID,
		InvoiceNumber:   d.InvoiceNumber,
		Sequence:        d.Sequence,
		Status:          string(d.Status),
		StatusChangedAt: d.StatusChangedAt,
		ProofRef:        d.ProofRef,
		FailureReason:   d.FailureReason,
	})
}

// CustomerHandler triggers geocoding of imported customers.
// Geocoder is nil when no geocoding service is configured.
type CustomerHandler struct {
	Geocoder *services.CustomerGeocoder
}

func (h *CustomerHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	if h.Geocoder == nil {
		writeError(w, r, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	sum, err := h.Geocoder.GeocodePending(r.Context(), chi.URLParam(r, "tenantID"), limit)
	if err != nil {
		writeServiceError(w, r, "geocode customers", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeResponse{
		Resolved: sum.Resolved,
		Failed:   sum.Failed,
		Skipped:  sum.Skipped,
	})
}
