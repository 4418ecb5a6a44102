package domain

import (
	"fmt"
	"strings"
	"time"
)

type RouteStatus string

const (
	RoutePlanned   RouteStatus = "PLANNED"
	RouteActive    RouteStatus = "ACTIVE"
	RouteCompleted RouteStatus = "COMPLETED"
	RouteCanceled  RouteStatus = "CANCELED"
)

// Imported routes are pinned to midday so date-only values survive time zone shifts.
const RouteHour = 12

var routeTransitions = map[RouteStatus][]RouteStatus{
	RoutePlanned: {RouteActive, RouteCanceled},
	RouteActive:  {RouteCompleted, RouteCanceled},
}

// Header fields recovered from a manifest, before identity resolution.
type RouteHeader struct {
	Name             string
	Date             time.Time
	DriverIdentifier string
	VehiclePlate     string
}

// Represents a planned set of deliveries for one driver and vehicle on one date.
// Driver and Vehicle stay Unresolved when the manifest names someone unknown.
type Route struct {
	ID          string
	TenantID    string
	Name        string
	Date        time.Time
	Driver      Resolution
	Vehicle     Resolution
	Status      RouteStatus
	DeliveryIDs []string
	CreatedAt   time.Time
}

// Represents a single stop of a route as shown to dispatchers and drivers.
type RouteStop struct {
	DeliveryID    string
	Sequence      int
	InvoiceNumber string
	CustomerID    string
	CustomerName  string
	Address       string
	Location      Coordinates
	Status        DeliveryStatus
}

// Return the date at the fixed route hour, in UTC.
func PinRouteDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, RouteHour, 0, 0, 0, time.UTC)
}

// Build a route name from whatever the header carries.
func SynthesizeRouteName(plate, driver string, date time.Time) string {
	parts := []string{"Rota"}
	if p := strings.TrimSpace(plate); p != "" {
		parts = append(parts, p)
	}
	if d := strings.TrimSpace(driver); d != "" {
		parts = append(parts, d)
	}
	if !date.IsZero() {
		parts = append(parts, date.Format("02/01/2006"))
	}
	return strings.Join(parts, " - ")
}

func (s RouteStatus) CanTransition(to RouteStatus) bool {
	for _, next := range routeTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Move the route to a new status.
func (r *Route) Transition(to RouteStatus) error {
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("route %s: %s -> %s: %w", r.ID, r.Status, to, ErrInvalidTransition)
	}
	r.Status = to
	return nil
}
