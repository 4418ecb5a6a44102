package services

import (
	"cmp"
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/ports"
	"fmt"
	"math"
	"slices"
)

const earthRadiusMeters = 6371000.0

// OrderStops returns the stops in a suggested visiting order using a greedy
// nearest-neighbor walk from the depot over straight-line distances.
//
// Stops without coordinates cannot be placed and keep their import sequence
// at the end. The input slice is not modified.
func OrderStops(depot domain.Coordinates, stops []domain.RouteStop) []domain.RouteStop {
	out := make([]domain.RouteStop, 0, len(stops))

	var located, unresolved []domain.RouteStop
	for _, s := range stops {
		if s.Location.IsUnresolved() {
			unresolved = append(unresolved, s)
			continue
		}
		located = append(located, s)
	}

	current := depot
	remaining := located
	for len(remaining) > 0 {
		best := -1
		minDist := math.MaxFloat64

		for i, s := range remaining {
			d := haversine(current, s.Location)
			// Tie-breaker keeps the ordering deterministic.
			if d < minDist || (d == minDist && best >= 0 && s.Sequence < remaining[best].Sequence) {
				minDist = d
				best = i
			}
		}

		next := remaining[best]
		out = append(out, next)
		current = next.Location
		remaining = append(remaining[:best:best], remaining[best+1:]...)
	}

	slices.SortStableFunc(unresolved, func(a, b domain.RouteStop) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return append(out, unresolved...)
}

// Great-circle distance in meters.
func haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// RouteQueries serves the read side of imported routes.
type RouteQueries struct {
	reader ports.RouteReader
	depot  domain.Coordinates
}

func NewRouteQueries(reader ports.RouteReader, depot domain.Coordinates) *RouteQueries {
	return &RouteQueries{reader: reader, depot: depot}
}

func (q *RouteQueries) ListRoutes(ctx context.Context, tenantID string) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, "routes.ListRoutes")(&err)

	routes, err := q.reader.ListRoutes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

// Return the route's stops in display order.
func (q *RouteQueries) Stops(ctx context.Context, tenantID, routeID string) (_ []domain.RouteStop, err error) {
	defer obs.Time(ctx, "routes.Stops")(&err)

	if _, err := q.reader.GetRoute(ctx, tenantID, routeID); err != nil {
		return nil, fmt.Errorf("route stops: %w", err)
	}

	stops, err := q.reader.ListRouteStops(ctx, tenantID, routeID)
	if err != nil {
		return nil, fmt.Errorf("route stops: %w", err)
	}
	return OrderStops(q.depot, stops), nil
}
