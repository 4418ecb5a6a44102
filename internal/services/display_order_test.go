package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStops(t *testing.T) {
	depot := domain.Coordinates{Lon: -38.50, Lat: -3.70}

	stops := []domain.RouteStop{
		{DeliveryID: "C", Sequence: 1},
		{DeliveryID: "D", Sequence: 2, Location: domain.Coordinates{Lon: -38.55, Lat: -3.70}},
		{DeliveryID: "A", Sequence: 3, Location: domain.Coordinates{Lon: -38.70, Lat: -3.70}},
		{DeliveryID: "B", Sequence: 4, Location: domain.Coordinates{Lon: -38.51, Lat: -3.70}},
		{DeliveryID: "E", Sequence: 5},
	}

	got := OrderStops(depot, stops)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.DeliveryID)
	}
	require.Equal(t, []string{"B", "D", "A", "C", "E"}, ids)

	// Input untouched.
	require.Equal(t, "C", stops[0].DeliveryID)
}

func TestOrderStopsTiesKeepSequence(t *testing.T) {
	same := domain.Coordinates{Lon: -38.6, Lat: -3.8}
	stops := []domain.RouteStop{
		{DeliveryID: "second", Sequence: 2, Location: same},
		{DeliveryID: "first", Sequence: 1, Location: same},
	}

	got := OrderStops(domain.Coordinates{Lon: -38.5, Lat: -3.7}, stops)
	require.Equal(t, "first", got[0].DeliveryID)
	require.Equal(t, "second", got[1].DeliveryID)
}

func TestOrderStopsEmpty(t *testing.T) {
	require.Empty(t, OrderStops(domain.Coordinates{}, nil))
}

func TestHaversine(t *testing.T) {
	// One degree of longitude on the equator.
	d := haversine(domain.Coordinates{Lon: 0, Lat: 0}, domain.Coordinates{Lon: 1, Lat: 0})
	require.InDelta(t, 111195, d, 1)
}

func TestRouteQueriesStops(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	route, err := f.importer().ImportRoute(ctx, tenant, manifestOf(3))
	require.NoError(t, err)

	stops, err := f.store.ListRouteStops(ctx, tenant, route.ID)
	require.NoError(t, err)
	// Only the last customer is located; it goes first.
	require.NoError(t, f.store.UpdateCustomerLocation(ctx, tenant, stops[2].CustomerID, domain.Coordinates{Lon: -38.6, Lat: -3.8}))

	q := NewRouteQueries(f.store, domain.Coordinates{Lon: -38.5, Lat: -3.7})
	ordered, err := q.Stops(ctx, tenant, route.ID)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	require.Equal(t, 3, ordered[0].Sequence)
	require.Equal(t, 1, ordered[1].Sequence)
	require.Equal(t, 2, ordered[2].Sequence)

	_, err = q.Stops(ctx, tenant, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	routes, err := q.ListRoutes(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, routes, 1)
}
