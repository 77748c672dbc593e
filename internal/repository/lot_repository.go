package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel comparisons
	"strings"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// LotRepo provides methods to create, retrieve and mutate parking lots.
// It embeds a database handle to perform queries and commands.  Methods
// with a Tx suffix operate within a caller-supplied transaction; the
// caller must commit or roll back.
type LotRepo struct {
	db *sql.DB
}

// NewLotRepo constructs a LotRepo with the given DB handle.
func NewLotRepo(db *sql.DB) *LotRepo {
	return &LotRepo{db: db}
}

// DB exposes the underlying handle so callers can begin transactions
// that span lots, spots and reservations.
func (r *LotRepo) DB() *sql.DB { return r.db }

const lotColumns = `id, name, address, pin_code, price_per_hour, maximum_capacity, is_active, created_at, updated_at`

func scanLot(row interface{ Scan(...any) error }, l *model.ParkingLot) error {
	return row.Scan(&l.ID, &l.Name, &l.Address, &l.PinCode, &l.PricePerHour, &l.MaximumCapacity, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
}

// CreateTx inserts a new lot within the scope of an existing transaction
// and reads the row back so timestamps and defaults are populated.  A
// duplicate name is surfaced as ErrLotExists.
func (r *LotRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.ParkingLot) error {
	const qInsert = `INSERT INTO parking_lots (name, address, pin_code, price_per_hour, maximum_capacity, is_active)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, l.Name, l.Address, l.PinCode, l.PricePerHour, l.MaximumCapacity, l.IsActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrLotExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	const qSelect = `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ?`
	return scanLot(tx.QueryRowContext(ctx, qSelect, l.ID), l)
}

// ErrLotExists is returned when a lot name is already taken.
var ErrLotExists = errors.New("parking lot name already exists")

// GetByID retrieves a lot by its ID.  It returns ErrLotNotFound when no
// row is found.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (*model.ParkingLot, error) {
	const q = `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ?`
	var l model.ParkingLot
	if err := scanLot(r.db.QueryRowContext(ctx, q, id), &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetByIDTx is GetByID within a transaction, used by resize and delete
// so the lot row participates in the same atomic unit.
func (r *LotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ParkingLot, error) {
	const q = `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ? FOR UPDATE`
	var l model.ParkingLot
	if err := scanLot(tx.QueryRowContext(ctx, q, id), &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &l, nil
}

// List returns all lots ordered by name.
func (r *LotRepo) List(ctx context.Context) ([]model.ParkingLot, error) {
	const q = `SELECT ` + lotColumns + ` FROM parking_lots ORDER BY name`
	return r.queryLots(ctx, q)
}

// Search returns lots whose name, address or pin code matches the term,
// case-insensitively.  An empty term behaves like List.
func (r *LotRepo) Search(ctx context.Context, term string) ([]model.ParkingLot, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.List(ctx)
	}
	pattern := "%" + strings.ToLower(term) + "%"
	const q = `SELECT ` + lotColumns + ` FROM parking_lots
	           WHERE LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(pin_code) LIKE ?
	           ORDER BY name`
	return r.queryLots(ctx, q, pattern, pattern, pattern)
}

func (r *LotRepo) queryLots(ctx context.Context, q string, args ...any) ([]model.ParkingLot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParkingLot, 0)
	for rows.Next() {
		var l model.ParkingLot
		if err := scanLot(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateTx writes the editable lot fields, including the new capacity,
// within a transaction.  The capacity reconciler must have adjusted the
// spot set in the same transaction before commit.
func (r *LotRepo) UpdateTx(ctx context.Context, tx *sql.Tx, l *model.ParkingLot) error {
	const q = `UPDATE parking_lots
	           SET name = ?, address = ?, pin_code = ?, price_per_hour = ?, maximum_capacity = ?, is_active = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, l.Name, l.Address, l.PinCode, l.PricePerHour, l.MaximumCapacity, l.IsActive, l.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrLotExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows for no-op updates too, so
		// verify existence before declaring the lot gone.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM parking_lots WHERE id = ?`, l.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLotNotFound
			}
			return err
		}
	}
	return nil
}

// SetCapacityTx adjusts only maximum_capacity; used when a single spot
// deletion shrinks the lot by one.
func (r *LotRepo) SetCapacityTx(ctx context.Context, tx *sql.Tx, lotID uint64, capacity int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE parking_lots SET maximum_capacity = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		capacity, lotID)
	return err
}

// DeleteTx removes the lot row.  Spots are removed by the ON DELETE
// CASCADE constraint; the service layer is responsible for verifying the
// deletion guards beforehand inside the same transaction.
func (r *LotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLotNotFound
	}
	return nil
}
