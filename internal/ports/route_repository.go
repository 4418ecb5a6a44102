package ports

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"time"
)

// Port: read side of routes and customers for the API.
type RouteReader interface {
	ListRoutes(ctx context.Context, tenantID string) ([]*domain.Route, error)
	GetRoute(ctx context.Context, tenantID, routeID string) (*domain.Route, error)
	// Return the route's stops in import sequence.
	ListRouteStops(ctx context.Context, tenantID, routeID string) ([]domain.RouteStop, error)
	GetCustomer(ctx context.Context, tenantID, customerID string) (*domain.Customer, error)
}

// Port: persistence for the delivery status workflow.
type DeliveryStore interface {
	GetDelivery(ctx context.Context, tenantID, deliveryID string) (*domain.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, d *domain.Delivery) error
	ListRouteDeliveries(ctx context.Context, tenantID, routeID string) ([]*domain.Delivery, error)
	GetRoute(ctx context.Context, tenantID, routeID string) (*domain.Route, error)
	UpdateRouteStatus(ctx context.Context, r *domain.Route) error
}

// Port: customers still waiting for coordinates.
type CustomerLocationStore interface {
	// Customers never tried come first, then the least recently tried.
	ListUnresolvedCustomers(ctx context.Context, tenantID string, limit int) ([]*domain.Customer, error)
	// Set the location of a customer still at {0,0}; domain.ErrAlreadyLocated otherwise.
	UpdateCustomerLocation(ctx context.Context, tenantID, customerID string, loc domain.Coordinates) error
	MarkGeocodeAttempt(ctx context.Context, tenantID, customerID string, at time.Time) error
}
