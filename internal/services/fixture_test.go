package services

import (
	"context"
	"delivery-manifest-service/internal/adapters/repositories"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/db"
	"delivery-manifest-service/internal/ports"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const tenant = "tenant-a"

var fixedNow = time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	db    *sqlx.DB
	store *repositories.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()

	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.InitSchema(context.Background(), sqlDB))
	return &fixture{db: sqlDB, store: repositories.NewStore(sqlDB)}
}

func (f *fixture) seedFleet(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.CreateDriver(ctx, &domain.Driver{
		ID: "drv-1", TenantID: tenant, Name: "João da Silva", Document: "123.456.789-00",
	}))
	require.NoError(t, f.store.CreateVehicle(ctx, &domain.Vehicle{
		ID: "veh-1", TenantID: tenant, Plate: "ABC-1D23",
	}))
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func (f *fixture) importer(opts ...ImporterOption) *RouteImporter {
	return NewRouteImporter(f.store, nil, append([]ImporterOption{WithClock(clock)}, opts...)...)
}

// Build a manifest with n distinct customers.
func manifestOf(n int) domain.Manifest {
	m := domain.Manifest{
		Header: domain.RouteHeader{
			Name:             "Rota - ABC1D23 - JOAO DA SILVA - 09/03/2026",
			Date:             time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			DriverIdentifier: "JOAO DA SILVA",
			VehiclePlate:     "ABC1D23",
		},
	}
	for i := 1; i <= n; i++ {
		m.Deliveries = append(m.Deliveries, domain.CandidateDelivery{
			InvoiceNumber:       fmt.Sprintf("10000%d", i),
			CustomerName:        fmt.Sprintf("CLIENTE %d LTDA", i),
			CustomerAddressText: fmt.Sprintf("Rua %d, 100 - FORTALEZA", i),
			City:                "FORTALEZA",
			Volume:              float64(i) * 10,
			Priority:            domain.PriorityNormal,
		})
	}
	return m
}

// Run fn against the import repository in a committed transaction.
func (f *fixture) withRepo(t *testing.T, fn func(ctx context.Context, repo ports.ImportRepository) error) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), ports.DefaultTxBudget(), fn))
}
