package repositories

import (
	"context"
	"database/sql"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/ports"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrDuplicate = errors.New("already exists")

// Store is the SQL implementation of the import, read and workflow ports.
// Queries are written with ? placeholders and rebound for the driver in use
// (pgx uses $n, sqlite keeps ?).
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var (
	_ ports.Transactor            = (*Store)(nil)
	_ ports.RouteReader           = (*Store)(nil)
	_ ports.DeliveryStore         = (*Store)(nil)
	_ ports.CustomerLocationStore = (*Store)(nil)
)

// WithinTx runs fn in one transaction. Acquiring the connection and running
// the transaction each get their own deadline from budget.
func (s *Store) WithinTx(
	ctx context.Context,
	budget ports.TxBudget,
	fn func(ctx context.Context, repo ports.ImportRepository) error,
) (err error) {
	defer obs.Time(ctx, "store.WithinTx")(&err)

	if s.db == nil {
		return errors.New("within tx: DB is nil")
	}

	def := ports.DefaultTxBudget()
	if budget.Acquire <= 0 {
		budget.Acquire = def.Acquire
	}
	if budget.Execute <= 0 {
		budget.Execute = def.Execute
	}

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, budget.Acquire)
	conn, err := s.db.Connx(acquireCtx)
	acquireErr := acquireCtx.Err()
	cancelAcquire()
	if err != nil {
		return budgetError("within tx: acquire connection", acquireErr, err)
	}
	defer conn.Close()

	execCtx, cancel := context.WithTimeout(ctx, budget.Execute)
	defer cancel()

	tx, err := conn.BeginTxx(execCtx, nil)
	if err != nil {
		return budgetError("within tx: begin", execCtx.Err(), err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(execCtx, &txRepository{q: tx}); err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("within tx: %w: %w", domain.ErrBudgetExceeded, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return budgetError("within tx: commit", execCtx.Err(), err)
	}
	return nil
}

func budgetError(op string, ctxErr, err error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrBudgetExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Register a driver. Used by seeding and fleet administration.
func (s *Store) CreateDriver(ctx context.Context, d *domain.Driver) (err error) {
	defer obs.Time(ctx, "store.CreateDriver")(&err)

	nameKey := domain.NormalizeIdentifier(d.Name)
	docKey := domain.NormalizeIdentifier(d.Document)

	var n int
	q := s.db.Rebind(`
	SELECT COUNT(*) FROM drivers
	WHERE tenant_id = ? AND name_key = ? AND document_key = ?;
	`)
	if err := s.db.GetContext(ctx, &n, q, d.TenantID, nameKey, docKey); err != nil {
		return fmt.Errorf("create driver: check existing: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("create driver %q: %w", d.Name, ErrDuplicate)
	}

	q = s.db.Rebind(`
	INSERT INTO drivers (id, tenant_id, name, document, document_key, name_key)
	VALUES (?, ?, ?, ?, ?, ?);
	`)
	if _, err := s.db.ExecContext(ctx, q, d.ID, d.TenantID, d.Name, d.Document, docKey, nameKey); err != nil {
		return fmt.Errorf("create driver %q: %w", d.Name, err)
	}
	return nil
}

// Register a vehicle. Used by seeding and fleet administration.
func (s *Store) CreateVehicle(ctx context.Context, v *domain.Vehicle) (err error) {
	defer obs.Time(ctx, "store.CreateVehicle")(&err)

	key := domain.NormalizePlate(v.Plate)

	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM vehicles WHERE tenant_id = ? AND plate_key = ?;`)
	if err := s.db.GetContext(ctx, &n, q, v.TenantID, key); err != nil {
		return fmt.Errorf("create vehicle: check existing: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("create vehicle %q: %w", v.Plate, ErrDuplicate)
	}

	q = s.db.Rebind(`INSERT INTO vehicles (id, tenant_id, plate, plate_key) VALUES (?, ?, ?, ?);`)
	if _, err := s.db.ExecContext(ctx, q, v.ID, v.TenantID, v.Plate, key); err != nil {
		return fmt.Errorf("create vehicle %q: %w", v.Plate, err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
