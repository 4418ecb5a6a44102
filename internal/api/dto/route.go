package dto

import "time"

type RouteResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	DriverID    *string   `json:"driver_id"`
	VehicleID   *string   `json:"vehicle_id"`
	Status      string    `json:"status"`
	DeliveryIDs []string  `json:"delivery_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type StopResponse struct {
	DeliveryID    string    `json:"delivery_id"`
	Sequence      int       `json:"sequence"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Address       string    `json:"address"`
	Location      []float64 `json:"location"`
	Resolved      bool      `json:"location_resolved"`
	Status        string    `json:"status"`
}

type ListStopsResponse struct {
	RouteID string         `json:"route_id"`
	Stops   []StopResponse `json:"stops"`
}

type LayoutsResponse struct {
	Layouts []string `json:"layouts"`
	Default string   `json:"default"`
}
