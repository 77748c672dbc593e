package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  A
// reservation links a user to a parking spot across its lifecycle and
// is kept forever as history.  All timestamp fields are stored in UTC;
// conversion to a display timezone is the presentation layer's problem.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, spot_id, user_id, vehicle_number, booking_timestamp, check_in_timestamp, check_out_timestamp, total_cost, status`

func scanReservation(row interface{ Scan(...any) error }, res *model.Reservation) error {
	var (
		spotID   sql.NullInt64
		checkIn  sql.NullTime
		checkOut sql.NullTime
		cost     sql.NullFloat64
	)
	if err := row.Scan(&res.ID, &spotID, &res.UserID, &res.VehicleNumber, &res.BookingTimestamp,
		&checkIn, &checkOut, &cost, &res.Status); err != nil {
		return err
	}
	if spotID.Valid {
		v := uint64(spotID.Int64)
		res.SpotID = &v
	}
	if checkIn.Valid {
		t := checkIn.Time
		res.CheckInTimestamp = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		res.CheckOutTimestamp = &t
	}
	if cost.Valid {
		c := cost.Float64
		res.TotalCost = &c
	}
	return nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID on the provided record.
// The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (spot_id, user_id, vehicle_number, booking_timestamp, status) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.SpotID, res.UserID, res.VehicleNumber, res.BookingTimestamp, res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID retrieves a reservation by id, without locking.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetByIDTx retrieves a reservation with a row lock so state machine
// operations see a stable row for the duration of their transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	var res model.Reservation
	if err := scanReservation(tx.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// MarkActiveTx records a check-in: status pending -> active plus the
// check-in timestamp.  The WHERE clause re-asserts the pending status
// so a lost race surfaces as ErrInvalidTransition instead of a double
// transition.
func (r *ReservationRepo) MarkActiveTx(ctx context.Context, tx *sql.Tx, id uint64, checkIn time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'active', check_in_timestamp = ? WHERE id = ? AND status = 'pending'`,
		checkIn, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkCompletedTx records a park-out: status active -> completed with
// the check-out timestamp and final cost.
func (r *ReservationRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id uint64, checkOut time.Time, totalCost float64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'completed', check_out_timestamp = ?, total_cost = ? WHERE id = ? AND status = 'active'`,
		checkOut, totalCost, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkCancelledTx records an abandonment: status pending -> cancelled.
func (r *ReservationRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled' WHERE id = ? AND status = 'pending'`,
		id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ReservationDetail pairs a reservation with display information about
// its spot and lot for listings.  Spot and lot fields are empty when
// the spot was deleted after the reservation completed.
type ReservationDetail struct {
	model.Reservation
	SpotNumber   string  // parking_spots.spot_number, "" when spot deleted
	LotID        uint64  // parking_lots.id, 0 when spot deleted
	LotName      string  // parking_lots.name
	PricePerHour float64 // parking_lots.price_per_hour
}

const detailQuery = `SELECT r.id, r.spot_id, r.user_id, r.vehicle_number, r.booking_timestamp,
	       r.check_in_timestamp, r.check_out_timestamp, r.total_cost, r.status,
	       COALESCE(s.spot_number, ''), COALESCE(s.lot_id, 0), COALESCE(l.name, ''), COALESCE(l.price_per_hour, 0)
	FROM reservations r
	LEFT JOIN parking_spots s ON s.id = r.spot_id
	LEFT JOIN parking_lots l ON l.id = s.lot_id`

func scanDetail(row interface{ Scan(...any) error }, d *ReservationDetail) error {
	var (
		spotID   sql.NullInt64
		checkIn  sql.NullTime
		checkOut sql.NullTime
		cost     sql.NullFloat64
	)
	if err := row.Scan(&d.ID, &spotID, &d.UserID, &d.VehicleNumber, &d.BookingTimestamp,
		&checkIn, &checkOut, &cost, &d.Status,
		&d.SpotNumber, &d.LotID, &d.LotName, &d.PricePerHour); err != nil {
		return err
	}
	if spotID.Valid {
		v := uint64(spotID.Int64)
		d.SpotID = &v
	}
	if checkIn.Valid {
		t := checkIn.Time
		d.CheckInTimestamp = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		d.CheckOutTimestamp = &t
	}
	if cost.Valid {
		c := cost.Float64
		d.TotalCost = &c
	}
	return nil
}

func (r *ReservationRepo) queryDetails(ctx context.Context, q string, args ...any) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		if err := scanDetail(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByUser returns all reservations for the given user, newest
// booking first.  When no reservations exist an empty slice is
// returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = detailQuery + ` WHERE r.user_id = ? ORDER BY r.booking_timestamp DESC`
	return r.queryDetails(ctx, q, userID)
}

// ListBySpot returns the reservation history of a single spot, newest
// booking first.  Used by the admin spot detail view.
func (r *ReservationRepo) ListBySpot(ctx context.Context, spotID uint64) ([]ReservationDetail, error) {
	const q = detailQuery + ` WHERE r.spot_id = ? ORDER BY r.booking_timestamp DESC`
	return r.queryDetails(ctx, q, spotID)
}

// ActiveBySpot returns the active reservation on a spot, if any.
func (r *ReservationRepo) ActiveBySpot(ctx context.Context, spotID uint64) (*ReservationDetail, error) {
	const q = detailQuery + ` WHERE r.spot_id = ? AND r.status = 'active' LIMIT 1`
	var d ReservationDetail
	if err := scanDetail(r.db.QueryRowContext(ctx, q, spotID), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// HasBlockingForSpotTx reports whether a pending or active reservation
// references the spot.  Used by the spot deletion guard inside its
// transaction.
func (r *ReservationRepo) HasBlockingForSpotTx(ctx context.Context, tx *sql.Tx, spotID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE spot_id = ? AND status IN ('pending','active')`,
		spotID).Scan(&n)
	return n > 0, err
}

// CountBlockingForLotTx counts pending/active reservations on any spot
// of the lot.  Used by the lot deletion guard.
func (r *ReservationRepo) CountBlockingForLotTx(ctx context.Context, tx *sql.Tx, lotID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations r JOIN parking_spots s ON s.id = r.spot_id
		 WHERE s.lot_id = ? AND r.status IN ('pending','active')`,
		lotID).Scan(&n)
	return n, err
}

// CountByStatus returns reservation counts per status.
func (r *ReservationRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM reservations GROUP BY status`)
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

// DailyBookingCounts returns the number of bookings per UTC day in
// [since, now], keyed YYYY-MM-DD.  Days without bookings are simply
// absent; the stats service fills the gaps with zeros.  The DATE()
// column arrives as time.Time because the connection runs with
// parseTime=true, so the key is formatted here rather than scanned.
func (r *ReservationRepo) DailyBookingCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE(booking_timestamp), COUNT(*) FROM reservations
		 WHERE booking_timestamp >= ? GROUP BY DATE(booking_timestamp)`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var day sql.NullTime
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		if day.Valid {
			out[day.Time.Format("2006-01-02")] = n
		}
	}
	return out, rows.Err()
}

// DailyRevenue returns the sum of total_cost per UTC day over completed
// reservations checked out in [since, now], keyed YYYY-MM-DD like
// DailyBookingCounts.
func (r *ReservationRepo) DailyRevenue(ctx context.Context, since time.Time) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE(check_out_timestamp), COALESCE(SUM(total_cost), 0) FROM reservations
		 WHERE status = 'completed' AND check_out_timestamp >= ?
		 GROUP BY DATE(check_out_timestamp)`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]float64)
	for rows.Next() {
		var day sql.NullTime
		var sum float64
		if err := rows.Scan(&day, &sum); err != nil {
			return nil, err
		}
		if day.Valid {
			out[day.Time.Format("2006-01-02")] = sum
		}
	}
	return out, rows.Err()
}

// CompletedByUser returns the user's completed reservations, most
// recent check-out first, capped at limit (0 means no cap).  Feeds the
// user cost chart and most-visited-lot tallies.
func (r *ReservationRepo) CompletedByUser(ctx context.Context, userID uint64, limit int) ([]ReservationDetail, error) {
	q := detailQuery + ` WHERE r.user_id = ? AND r.status = 'completed' ORDER BY r.check_out_timestamp DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryDetails(ctx, q, args...)
}
