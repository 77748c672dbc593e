package repository // repository defines data access for parking spots

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel comparisons

	"github.com/iliyamo/parking-reservation/internal/model"
)

// SpotRepo provides methods to work with parking spots.  Spot rows are
// only ever mutated inside transactions shared with the reservation or
// lot rows they synchronize with, so most mutating methods carry a Tx
// suffix and require a caller-supplied *sql.Tx.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo constructs a SpotRepo with the given DB handle.
func NewSpotRepo(db *sql.DB) *SpotRepo {
	return &SpotRepo{db: db}
}

const spotColumns = `id, lot_id, spot_number, status, created_at, updated_at`

func scanSpot(row interface{ Scan(...any) error }, s *model.ParkingSpot) error {
	return row.Scan(&s.ID, &s.LotID, &s.SpotNumber, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// CreateBulkTx inserts multiple spots in a single statement within the
// provided transaction.  All spots are created Available.  The unique
// constraint on (lot_id, spot_number) is the last line of defense
// against duplicate spot creation races; a violation aborts the insert.
// Passing an empty slice has no effect and returns nil.
func (r *SpotRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, spots []model.ParkingSpot) error {
	if len(spots) == 0 {
		return nil
	}
	query := `INSERT INTO parking_spots (lot_id, spot_number, status) VALUES `
	args := make([]interface{}, 0, len(spots)*3)
	for i, s := range spots {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		status := s.Status
		if status == "" {
			status = model.SpotAvailable
		}
		args = append(args, s.LotID, s.SpotNumber, status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a spot by its id.
func (r *SpotRepo) GetByID(ctx context.Context, id uint64) (*model.ParkingSpot, error) {
	const q = `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = ?`
	var s model.ParkingSpot
	if err := scanSpot(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDTx retrieves a spot inside a transaction with a row lock, so
// the spot cannot change under an in-flight check-in or park-out.
func (r *SpotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ParkingSpot, error) {
	const q = `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = ? FOR UPDATE`
	var s model.ParkingSpot
	if err := scanSpot(tx.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByLot retrieves all spots of a lot ordered by spot_number.
func (r *SpotRepo) ListByLot(ctx context.Context, lotID uint64) ([]model.ParkingSpot, error) {
	const q = `SELECT ` + spotColumns + ` FROM parking_spots WHERE lot_id = ? ORDER BY spot_number`
	rows, err := r.db.QueryContext(ctx, q, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParkingSpot, 0)
	for rows.Next() {
		var s model.ParkingSpot
		if err := scanSpot(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// NumbersByLotTx returns every spot_number in the lot, inside the
// resize transaction.  The reconciler scans these to pick the next
// unused numeric suffixes.
func (r *SpotRepo) NumbersByLotTx(ctx context.Context, tx *sql.Tx, lotID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT spot_number FROM parking_spots WHERE lot_id = ?`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// FindLowestAvailableTx returns the Available spot with the lowest
// spot_number in the lot, or ErrNoAvailableSpot when none exists.  The
// deterministic ascending order makes booking allocation reproducible.
func (r *SpotRepo) FindLowestAvailableTx(ctx context.Context, tx *sql.Tx, lotID uint64) (*model.ParkingSpot, error) {
	const q = `SELECT ` + spotColumns + ` FROM parking_spots
	           WHERE lot_id = ? AND status = 'Available'
	           ORDER BY spot_number ASC LIMIT 1`
	var s model.ParkingSpot
	if err := scanSpot(tx.QueryRowContext(ctx, q, lotID), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoAvailableSpot
		}
		return nil, err
	}
	return &s, nil
}

// ClaimTx flips a spot from Available to Reserved with a conditional
// update and reports whether this caller won.  Two concurrent bookings
// can both read the same candidate row; only the one whose update
// affects a row gets the spot, the other observes false and must treat
// the lot as full or retry.
func (r *SpotRepo) ClaimTx(ctx context.Context, tx *sql.Tx, spotID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET status = 'Reserved', updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = 'Available'`,
		spotID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateStatusTx sets a spot's status conditionally on its current
// status.  It returns ErrConsistency when the spot was not in the
// expected state, leaving the decision on how to surface the mismatch
// to the caller.
func (r *SpotRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, spotID uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`,
		to, spotID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConsistency
	}
	return nil
}

// RemovableByLotTx selects up to limit spots that a capacity decrease
// may delete: Available status and no pending/active reservation
// referencing them.  Spots are ordered by spot_number descending so the
// newest-numbered spots are removed first.
func (r *SpotRepo) RemovableByLotTx(ctx context.Context, tx *sql.Tx, lotID uint64, limit int) ([]model.ParkingSpot, error) {
	const q = `SELECT s.id, s.lot_id, s.spot_number, s.status, s.created_at, s.updated_at
	           FROM parking_spots s
	           WHERE s.lot_id = ? AND s.status = 'Available'
	             AND NOT EXISTS (
	               SELECT 1 FROM reservations res
	               WHERE res.spot_id = s.id AND res.status IN ('pending','active')
	             )
	           ORDER BY s.spot_number DESC
	           LIMIT ?`
	rows, err := tx.QueryContext(ctx, q, lotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ParkingSpot
	for rows.Next() {
		var s model.ParkingSpot
		if err := scanSpot(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteByIDsTx removes the given spots.  Reservations that reference
// them keep their history: the FK sets reservations.spot_id to NULL.
func (r *SpotRepo) DeleteByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM parking_spots WHERE id IN (`
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountInUseByLotTx counts spots of a lot that are Occupied or
// Reserved.  Used by the lot deletion guard.
func (r *SpotRepo) CountInUseByLotTx(ctx context.Context, tx *sql.Tx, lotID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND status IN ('Occupied','Reserved')`,
		lotID).Scan(&n)
	return n, err
}

// CountByStatus returns the number of spots per status across all lots.
// Missing statuses are absent from the map; callers should treat them
// as zero.
func (r *SpotRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM parking_spots GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// CountAvailableByLot returns available spot counts keyed by lot id,
// used when listing lots to users.
func (r *SpotRepo) CountAvailableByLot(ctx context.Context) (map[uint64]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lot_id, COUNT(*) FROM parking_spots WHERE status = 'Available' GROUP BY lot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]int)
	for rows.Next() {
		var lotID uint64
		var n int
		if err := rows.Scan(&lotID, &n); err != nil {
			return nil, err
		}
		out[lotID] = n
	}
	return out, rows.Err()
}
