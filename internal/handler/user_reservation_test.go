package handler

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/queue"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/service"
)

func newReservationHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	lots := repository.NewLotRepo(db)
	spots := repository.NewSpotRepo(db)
	resvs := repository.NewReservationRepo(db)
	h := NewReservationHandler(lots, spots, resvs,
		service.NewReservationService(lots, spots, resvs),
		service.NewStatsService(repository.NewUserRepo(db), spots, resvs))
	return h, mock
}

// Lifecycle events carry the spot and lot context, so the helper loads
// both before publishing. Broker failures are swallowed, which lets
// this run without a broker.
func TestPublishEventLoadsSpotAndLot(t *testing.T) {
	h, mock := newReservationHandler(t)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots WHERE id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "lot_id", "spot_number", "status", "created_at", "updated_at",
		}).AddRow(7, 2, "S001", model.SpotAvailable, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "address", "pin_code", "price_per_hour", "maximum_capacity", "is_active", "created_at", "updated_at",
		}).AddRow(2, "Central", "1 Main St", "560001", 20.0, 5, true, now, now))

	spotID := uint64(7)
	h.publishEvent(context.Background(), queue.KindCancelled, &model.Reservation{
		ID:               11,
		SpotID:           &spotID,
		UserID:           42,
		VehicleNumber:    "KA01AB1234",
		BookingTimestamp: now,
		Status:           model.ReservationCancelled,
	}, now)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A reservation detached from its spot has no lot context left to
// publish; the helper must not touch the database.
func TestPublishEventSkipsDetachedReservation(t *testing.T) {
	h, mock := newReservationHandler(t)

	h.publishEvent(context.Background(), queue.KindCheckedIn, &model.Reservation{
		ID:     11,
		UserID: 42,
		Status: model.ReservationActive,
	}, time.Now().UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}
