package cache

import (
	"context"
	"delivery-manifest-service/internal/adapters/repositories"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/db"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLGeocodeCache(t *testing.T) {
	ctx := context.Background()

	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, repositories.InitSchema(ctx, sqlDB))

	c := NewSQLGeocodeCache(sqlDB)

	got, err := c.GetMany(ctx, []string{"Rua X, 10 - FORTALEZA"})
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"Rua X, 10 - FORTALEZA": {Lon: -38.5, Lat: -3.7},
		"Av. Y, 200 - CAUCAIA":  {Lon: -38.6, Lat: -3.73},
	}))
	// Upsert replaces the stored point.
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"Rua X, 10 - FORTALEZA": {Lon: -38.51, Lat: -3.71},
	}))

	got, err = c.GetMany(ctx, []string{"Rua X, 10 - FORTALEZA", " Rua X, 10 - FORTALEZA ", "Av. Y, 200 - CAUCAIA", "unknown"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, domain.Coordinates{Lon: -38.51, Lat: -3.71}, got["Rua X, 10 - FORTALEZA"])

	require.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{" ": {}}))
}
