package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

func newLotService(t *testing.T) (*LotService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewLotService(
		repository.NewLotRepo(db),
		repository.NewSpotRepo(db),
		repository.NewReservationRepo(db),
	)
	return svc, mock
}

func lotRow(id uint64, name string, capacity int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "address", "pin_code", "price_per_hour", "maximum_capacity", "is_active", "created_at", "updated_at",
	}).AddRow(id, name, "1 Main St", "560001", 20.0, capacity, true, now, now)
}

func TestNextSpotNumbersFillsGaps(t *testing.T) {
	got, err := nextSpotNumbers([]string{"S001", "S003", "S004"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"S002", "S005", "S006"}, got)
}

func TestNextSpotNumbersIgnoresPrefix(t *testing.T) {
	got, err := nextSpotNumbers([]string{"A001", "B002"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"S003"}, got)
}

func TestNextSpotNumbersExhaustsSuffixSpace(t *testing.T) {
	existing := make([]string, maxSpotSuffix)
	for i := range existing {
		existing[i] = fmt.Sprintf("S%03d", i+1)
	}
	_, err := nextSpotNumbers(existing, 1)
	assert.ErrorIs(t, err, repository.ErrCapacity)
}

func TestCreateLotMaterializesSpots(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_lots")).
		WithArgs("Central", "1 Main St", "560001", 20.0, 3, true).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(lotRow(5, "Central", 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_spots (lot_id, spot_number, status) VALUES (?, ?, ?),(?, ?, ?),(?, ?, ?)")).
		WithArgs(5, "S001", "Available", 5, "S002", "Available", 5, "S003", "Available").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	lot := &model.ParkingLot{
		Name: "Central", Address: "1 Main St", PinCode: "560001",
		PricePerHour: 20, MaximumCapacity: 3, IsActive: true,
	}
	require.NoError(t, svc.CreateLot(context.Background(), lot))
	assert.EqualValues(t, 5, lot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLotRejectsOversizedCapacity(t *testing.T) {
	svc, mock := newLotService(t)
	lot := &model.ParkingLot{Name: "Huge", PricePerHour: 1, MaximumCapacity: 1000}
	err := svc.CreateLot(context.Background(), lot)
	assert.ErrorIs(t, err, repository.ErrCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLotRejectedDecreaseChangesNothing(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 5))
	numbers := sqlmock.NewRows([]string{"spot_number"})
	for i := 1; i <= 5; i++ {
		numbers.AddRow(fmt.Sprintf("S%03d", i))
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT spot_number FROM parking_spots WHERE lot_id = ?")).
		WithArgs(1).
		WillReturnRows(numbers)
	// only one of the two required spots qualifies for removal
	removable := sqlmock.NewRows([]string{
		"id", "lot_id", "spot_number", "status", "created_at", "updated_at",
	}).AddRow(55, 1, "S005", "Available", time.Now().UTC(), time.Now().UTC())
	mock.ExpectQuery("NOT EXISTS").
		WithArgs(1, 2).
		WillReturnRows(removable)
	mock.ExpectRollback()

	lot := &model.ParkingLot{
		ID: 1, Name: "Central", Address: "1 Main St", PinCode: "560001",
		PricePerHour: 20, MaximumCapacity: 3, IsActive: true,
	}
	err := svc.UpdateLot(context.Background(), lot)
	assert.ErrorIs(t, err, repository.ErrCapacity)
	// no DELETE and no UPDATE were expected: the whole edit rolled back
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLotIncreaseAddsSpots(t *testing.T) {
	svc, mock := newLotService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT spot_number FROM parking_spots WHERE lot_id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"spot_number"}).AddRow("S001").AddRow("S002"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_spots (lot_id, spot_number, status) VALUES (?, ?, ?)")).
		WithArgs(1, "S003", "Available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_lots")).
		WithArgs("Central", "1 Main St", "560001", 20.0, 3, true, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	lot := &model.ParkingLot{
		ID: 1, Name: "Central", Address: "1 Main St", PinCode: "560001",
		PricePerHour: 20, MaximumCapacity: 3, IsActive: true,
	}
	require.NoError(t, svc.UpdateLot(context.Background(), lot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSpotDecrementsCapacity(t *testing.T) {
	svc, mock := newLotService(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ? FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "lot_id", "spot_number", "status", "created_at", "updated_at",
		}).AddRow(9, 1, "S009", "Available", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE spot_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ? FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(lotRow(1, "Central", 9))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM parking_spots WHERE id IN (?)")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_lots SET maximum_capacity = ?")).
		WithArgs(8, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteSpot(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSpotBlockedWhileOccupied(t *testing.T) {
	svc, mock := newLotService(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ? FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "lot_id", "spot_number", "status", "created_at", "updated_at",
		}).AddRow(9, 1, "S009", "Occupied", now, now))
	mock.ExpectRollback()

	err := svc.DeleteSpot(context.Background(), 9)
	assert.ErrorIs(t, err, repository.ErrDeletionBlocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
