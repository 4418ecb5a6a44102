package ports

import (
	"context"
	"time"
)

// Sent to a driver after a route assigned to them has been imported.
type RouteAssignment struct {
	TenantID  string    `json:"tenant_id"`
	DriverID  string    `json:"driver_id"`
	RouteID   string    `json:"route_id"`
	RouteName string    `json:"route_name"`
	RouteDate time.Time `json:"route_date"`
	Stops     int       `json:"stops"`
}

// Contract for best-effort driver notification. Failures never affect an import.
type DriverNotifier interface {
	NotifyRouteAssigned(ctx context.Context, a RouteAssignment) error
}
