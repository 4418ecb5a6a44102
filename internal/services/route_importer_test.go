package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/ports"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestImportRouteCreatesRouteAndDeliveries(t *testing.T) {
	f := setup(t)
	f.seedFleet(t)
	ctx := context.Background()

	route, err := f.importer().ImportRoute(ctx, tenant, manifestOf(3))
	require.NoError(t, err)

	require.Equal(t, domain.RoutePlanned, route.Status)
	require.Equal(t, time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), route.Date)
	driverID, ok := route.Driver.ID()
	require.True(t, ok)
	require.Equal(t, "drv-1", driverID)
	require.True(t, route.Vehicle.IsResolved())
	require.Len(t, route.DeliveryIDs, 3)

	deliveries, err := f.store.ListRouteDeliveries(ctx, tenant, route.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 3)
	for i, d := range deliveries {
		require.Equal(t, i+1, d.Sequence)
		require.Equal(t, domain.DeliveryPending, d.Status)
		require.Equal(t, route.Driver, d.Driver)
		require.Equal(t, manifestOf(3).Deliveries[i].InvoiceNumber, d.InvoiceNumber)
	}

	require.Equal(t, 3, f.count(t, "customers"))
}

func TestImportRouteLeavesUnknownFleetUnresolved(t *testing.T) {
	f := setup(t)

	route, err := f.importer().ImportRoute(context.Background(), tenant, manifestOf(1))
	require.NoError(t, err)
	require.False(t, route.Driver.IsResolved())
	require.False(t, route.Vehicle.IsResolved())

	stored, err := f.store.GetRoute(context.Background(), tenant, route.ID)
	require.NoError(t, err)
	require.False(t, stored.Driver.IsResolved())
}

func TestImportRouteNewCustomerHasUnresolvedLocation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	route, err := f.importer().ImportRoute(ctx, tenant, manifestOf(1))
	require.NoError(t, err)

	stops, err := f.store.ListRouteStops(ctx, tenant, route.ID)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	require.True(t, stops[0].Location.IsUnresolved())

	c, err := f.store.GetCustomer(ctx, tenant, stops[0].CustomerID)
	require.NoError(t, err)
	require.Equal(t, domain.Coordinates{Lon: 0, Lat: 0}, c.Location)
}

// failingTx hands fn a repository that fails the nth CreateDelivery.
type failingTx struct {
	inner  ports.Transactor
	failAt int
}

func (f failingTx) WithinTx(
	ctx context.Context,
	b ports.TxBudget,
	fn func(ctx context.Context, repo ports.ImportRepository) error,
) error {
	return f.inner.WithinTx(ctx, b, func(ctx context.Context, repo ports.ImportRepository) error {
		return fn(ctx, &failingRepo{ImportRepository: repo, failAt: f.failAt})
	})
}

type failingRepo struct {
	ports.ImportRepository
	failAt int
	calls  int
}

var errDiskFull = errors.New("disk full")

func (r *failingRepo) CreateDelivery(ctx context.Context, d *domain.Delivery) error {
	r.calls++
	if r.calls == r.failAt {
		return errDiskFull
	}
	return r.ImportRepository.CreateDelivery(ctx, d)
}

func TestImportRouteIsAllOrNothing(t *testing.T) {
	f := setup(t)

	importer := NewRouteImporter(failingTx{inner: f.store, failAt: 4}, nil, WithClock(clock))
	route, err := importer.ImportRoute(context.Background(), tenant, manifestOf(5))
	require.Nil(t, route)

	require.ErrorIs(t, err, domain.ErrTransactionFailure)
	require.ErrorIs(t, err, errDiskFull)
	require.NotErrorIs(t, err, domain.ErrBudgetExceeded)

	var ie *domain.ImportError
	require.True(t, errors.As(err, &ie))
	require.Equal(t, manifestOf(5).Header.Name, ie.Route)

	require.Zero(t, f.count(t, "routes"))
	require.Zero(t, f.count(t, "deliveries"))
	require.Zero(t, f.count(t, "customers"))
}

func TestImportRouteBudgetExceededOnAcquire(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// The SQLite pool has a single connection; hold it.
	conn, err := f.db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	importer := f.importer(WithBudget(ports.TxBudget{Acquire: 50 * time.Millisecond, Execute: time.Second}))
	_, err = importer.ImportRoute(ctx, tenant, manifestOf(1))

	require.ErrorIs(t, err, domain.ErrBudgetExceeded)
	require.ErrorIs(t, err, domain.ErrTransactionFailure)

	var ie *domain.ImportError
	require.True(t, errors.As(err, &ie))
	require.True(t, ie.BudgetExceeded)
}

func TestImportRouteTwiceCreatesTwoRoutes(t *testing.T) {
	f := setup(t)
	importer := f.importer()

	first, err := importer.ImportRoute(context.Background(), tenant, manifestOf(2))
	require.NoError(t, err)
	second, err := importer.ImportRoute(context.Background(), tenant, manifestOf(2))
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 2, f.count(t, "routes"))
	require.Equal(t, 4, f.count(t, "deliveries"))
	// Customers are matched by name on the second import.
	require.Equal(t, 2, f.count(t, "customers"))
}

func TestImportRouteRejectsInvalidManifest(t *testing.T) {
	f := setup(t)
	importer := f.importer()
	ctx := context.Background()

	_, err := importer.ImportRoute(ctx, "", manifestOf(1))
	require.ErrorIs(t, err, domain.ErrInvalidImport)

	_, err = importer.ImportRoute(ctx, tenant, manifestOf(0))
	require.ErrorIs(t, err, domain.ErrInvalidImport)

	noDate := manifestOf(1)
	noDate.Header.Date = time.Time{}
	_, err = importer.ImportRoute(ctx, tenant, noDate)
	require.ErrorIs(t, err, domain.ErrInvalidImport)

	noInvoice := manifestOf(1)
	noInvoice.Deliveries[0].InvoiceNumber = " "
	_, err = importer.ImportRoute(ctx, tenant, noInvoice)
	require.ErrorIs(t, err, domain.ErrInvalidImport)

	require.Zero(t, f.count(t, "routes"))
}

func TestImportRouteSynthesizesMissingName(t *testing.T) {
	f := setup(t)

	m := manifestOf(1)
	m.Header.Name = ""
	route, err := f.importer().ImportRoute(context.Background(), tenant, m)
	require.NoError(t, err)
	require.Equal(t, "Rota - ABC1D23 - JOAO DA SILVA - 09/03/2026", route.Name)
}

type chanNotifier struct {
	got chan ports.RouteAssignment
	err error
}

func (n *chanNotifier) NotifyRouteAssigned(_ context.Context, a ports.RouteAssignment) error {
	n.got <- a
	return n.err
}

func TestImportRouteNotifiesResolvedDriver(t *testing.T) {
	f := setup(t)
	f.seedFleet(t)

	n := &chanNotifier{got: make(chan ports.RouteAssignment, 1)}
	importer := f.importer(WithNotifier(n))

	route, err := importer.ImportRoute(context.Background(), tenant, manifestOf(2))
	require.NoError(t, err)
	importer.Wait()

	select {
	case a := <-n.got:
		require.Equal(t, "drv-1", a.DriverID)
		require.Equal(t, route.ID, a.RouteID)
		require.Equal(t, 2, a.Stops)
	default:
		t.Fatal("expected a driver notification")
	}
}

func TestImportRouteIgnoresNotificationFailure(t *testing.T) {
	f := setup(t)
	f.seedFleet(t)

	n := &chanNotifier{got: make(chan ports.RouteAssignment, 1), err: errors.New("webhook down")}
	importer := f.importer(WithNotifier(n))

	_, err := importer.ImportRoute(context.Background(), tenant, manifestOf(1))
	require.NoError(t, err)
	importer.Wait()
	require.Len(t, n.got, 1)
	require.Equal(t, 1, f.count(t, "routes"))
}

func TestImportRouteSkipsNotificationWithoutDriver(t *testing.T) {
	f := setup(t)

	n := &chanNotifier{got: make(chan ports.RouteAssignment, 1)}
	importer := f.importer(WithNotifier(n))

	_, err := importer.ImportRoute(context.Background(), tenant, manifestOf(1))
	require.NoError(t, err)
	importer.Wait()
	require.Empty(t, n.got)
}
