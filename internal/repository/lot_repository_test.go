package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/model"
)

func newLotRepo(t *testing.T) (*LotRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewLotRepo(db), mock
}

func TestCreateTxDuplicateNameIsLotExists(t *testing.T) {
	repo, mock := newLotRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_lots")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'Central' for key 'name'"))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	err = repo.CreateTx(context.Background(), tx, &model.ParkingLot{Name: "Central", MaximumCapacity: 1})
	assert.ErrorIs(t, err, ErrLotExists)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newLotRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots WHERE id = ?")).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "address", "pin_code", "price_per_hour", "maximum_capacity", "is_active", "created_at", "updated_at",
		}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrLotNotFound)
}

func TestSearchMatchesNameAddressAndPin(t *testing.T) {
	repo, mock := newLotRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "address", "pin_code", "price_per_hour", "maximum_capacity", "is_active", "created_at", "updated_at",
	}).AddRow(1, "Central", "1 Main St", "560001", 20.0, 5, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(pin_code) LIKE ?")).
		WithArgs("%central%", "%central%", "%central%").
		WillReturnRows(rows)

	lots, err := repo.Search(context.Background(), "  Central ")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "Central", lots[0].Name)
}

func TestSearchEmptyTermListsAll(t *testing.T) {
	repo, mock := newLotRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_lots ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "address", "pin_code", "price_per_hour", "maximum_capacity", "is_active", "created_at", "updated_at",
		}))

	lots, err := repo.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, lots)
}
