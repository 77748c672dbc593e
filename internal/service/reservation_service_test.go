package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

func newReservationService(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewReservationService(
		repository.NewLotRepo(db),
		repository.NewSpotRepo(db),
		repository.NewReservationRepo(db),
	)
	return svc, mock
}

func spotRows(id, lotID uint64, number, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "lot_id", "spot_number", "status", "created_at", "updated_at",
	}).AddRow(id, lotID, number, status, now, now)
}

func reservationRows(id, spotID, userID uint64, status string, checkIn *time.Time) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "spot_id", "user_id", "vehicle_number", "booking_timestamp",
		"check_in_timestamp", "check_out_timestamp", "total_cost", "status",
	})
	var ci interface{}
	if checkIn != nil {
		ci = *checkIn
	}
	rows.AddRow(id, spotID, userID, "KA01AB1234", time.Now().UTC().Add(-2*time.Hour), ci, nil, nil, status)
	return rows
}

func TestBookClaimsLowestAvailableSpot(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 5))
	mock.ExpectQuery(regexp.QuoteMeta("status = 'Available'")).
		WithArgs(1).
		WillReturnRows(spotRows(7, 1, "S002", "Available"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = 'Reserved'")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WithArgs(sqlmock.AnyArg(), uint64(42), "KA01AB1234", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	res, spot, err := svc.Book(context.Background(), 1, 42, "KA01AB1234")
	require.NoError(t, err)
	assert.EqualValues(t, 11, res.ID)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, "S002", spot.SpotNumber)
	assert.Equal(t, model.SpotReserved, spot.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookLoserOfRaceSeesNoAvailableSpot(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 5))
	mock.ExpectQuery(regexp.QuoteMeta("status = 'Available'")).
		WithArgs(1).
		WillReturnRows(spotRows(7, 1, "S002", "Available"))
	// conditional update affects no row: a concurrent booking won
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = 'Reserved'")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := svc.Book(context.Background(), 1, 42, "KA01AB1234")
	assert.ErrorIs(t, err, repository.ErrNoAvailableSpot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookEmptyLot(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 5))
	mock.ExpectQuery(regexp.QuoteMeta("status = 'Available'")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "lot_id", "spot_number", "status", "created_at", "updated_at",
		}))
	mock.ExpectRollback()

	_, _, err := svc.Book(context.Background(), 1, 42, "KA01AB1234")
	assert.ErrorIs(t, err, repository.ErrNoAvailableSpot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInMovesReservationAndSpot(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "pending", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(spotRows(7, 1, "S002", "Reserved"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = 'active'")).
		WithArgs(sqlmock.AnyArg(), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = ?")).
		WithArgs("Occupied", 7, "Reserved").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CheckIn(context.Background(), 11, 42)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationActive, res.Status)
	require.NotNil(t, res.CheckInTimestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInTwiceIsInvalid(t *testing.T) {
	svc, mock := newReservationService(t)

	checkIn := time.Now().UTC().Add(-30 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "active", &checkIn))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), 11, 42)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRequiresOwnership(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "pending", nil))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), 11, 99)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInDesyncedSpotIsConsistencyError(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "pending", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(spotRows(7, 1, "S002", "Available"))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), 11, 42)
	assert.ErrorIs(t, err, repository.ErrConsistency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParkOutComputesCeilingCost(t *testing.T) {
	svc, mock := newReservationService(t)

	// 90 minutes parked at 20/hour bills two full hours
	checkIn := time.Now().UTC().Add(-90 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "active", &checkIn))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(spotRows(7, 1, "S002", "Occupied"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = 'completed'")).
		WithArgs(sqlmock.AnyArg(), 40.0, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = ?")).
		WithArgs("Available", 7, "Occupied").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.ParkOut(context.Background(), 11, 42)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCompleted, res.Status)
	require.NotNil(t, res.TotalCost)
	assert.Equal(t, 40.0, *res.TotalCost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParkOutWithoutCheckInNeverBills(t *testing.T) {
	svc, mock := newReservationService(t)

	// active reservation missing its check-in timestamp: surfaced, not
	// billed from booking time
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "active", nil))
	mock.ExpectRollback()

	_, err := svc.ParkOut(context.Background(), 11, 42)
	assert.ErrorIs(t, err, repository.ErrConsistency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPendingReleasesSpot(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "pending", nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = 'cancelled'")).
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(spotRows(7, 1, "S002", "Reserved"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_spots SET status = ?")).
		WithArgs("Available", 7, "Reserved").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Cancel(context.Background(), 11, 42)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAfterCheckInIsInvalid(t *testing.T) {
	svc, mock := newReservationService(t)

	checkIn := time.Now().UTC().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(reservationRows(11, 7, 42, "active", &checkIn))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 11, 42)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationNotFound(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? FOR UPDATE")).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "spot_id", "user_id", "vehicle_number", "booking_timestamp",
			"check_in_timestamp", "check_out_timestamp", "total_cost", "status",
		}))
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), 404, 42)
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
