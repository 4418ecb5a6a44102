package handlers

import (
	"delivery-manifest-service/internal/api/dto"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteHandler exposes read-only route endpoints.
type RouteHandler struct {
	Queries *services.RouteQueries
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Queries.ListRoutes(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		writeServiceError(w, r, "list routes", err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, routeResponse(rt))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Stops lists a route's deliveries in display order.
func (h *RouteHandler) Stops(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeID")

	stops, err := h.Queries.Stops(r.Context(), chi.URLParam(r, "tenantID"), routeID)
	if err != nil {
		writeServiceError(w, r, "route stops", err)
		return
	}

	res := dto.ListStopsResponse{RouteID: routeID, Stops: make([]dto.StopResponse, 0, len(stops))}
	for _, s := range stops {
		res.Stops = append(res.Stops, dto.StopResponse{
			DeliveryID:    s.DeliveryID,
			Sequence:      s.Sequence,
			InvoiceNumber: s.InvoiceNumber,
			CustomerID:    s.CustomerID,
			CustomerName:  s.CustomerName,
			Address:       s.Address,
			Location:      s.Location.CoordsToList(),
			Resolved:      !s.Location.IsUnresolved(),
			Status:        string(s.Status),
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// LayoutHandler lists the registered layout profiles.
type LayoutHandler struct {
	Pipeline      *services.ManifestImporter
	DefaultLayout string
}

func (h *LayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.LayoutsResponse{
		Layouts: h.Pipeline.Layouts(),
		Default: h.DefaultLayout,
	})
}

func routeResponse(rt *domain.Route) dto.RouteResponse {
	ids := rt.DeliveryIDs
	if ids == nil {
		ids = []string{}
	}
	return dto.RouteResponse{
		ID:          rt.ID,
		Name:        rt.Name,
		Date:        rt.Date,
		DriverID:    rt.Driver.Ptr(),
		VehicleID:   rt.Vehicle.Ptr(),
		Status:      string(rt.Status),
		DeliveryIDs: ids,
		CreatedAt:   rt.CreatedAt,
	}
}
