package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

func newStatsService(t *testing.T) (*StatsService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewStatsService(
		repository.NewUserRepo(db),
		repository.NewSpotRepo(db),
		repository.NewReservationRepo(db),
	)
	return svc, mock
}

var detailColumns = []string{
	"id", "spot_id", "user_id", "vehicle_number", "booking_timestamp",
	"check_in_timestamp", "check_out_timestamp", "total_cost", "status",
	"spot_number", "lot_id", "lot_name", "price_per_hour",
}

func TestDashboardEmptyStoreYieldsZeros(t *testing.T) {
	svc, mock := newStatsService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE is_admin=0")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY DATE(booking_timestamp)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY DATE(check_out_timestamp)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum"}))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, d.RegisteredUsers)
	assert.Equal(t, 0, d.SpotsByStatus["Available"])
	assert.Equal(t, 0, d.ReservationsByStatus["pending"])
	require.Len(t, d.Trend, 7)
	for _, p := range d.Trend {
		assert.Zero(t, p.Bookings)
		assert.Zero(t, p.Revenue)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardTrendCarriesDailyTotals(t *testing.T) {
	svc, mock := newStatsService(t)

	// the mysql driver hands DATE() columns back as time.Time under
	// parseTime=true
	today := time.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_spots GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("Available", 4))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("completed", 5))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE is_admin=0")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY DATE(booking_timestamp)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow(yesterday, 3).
			AddRow(today, 1))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY DATE(check_out_timestamp)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum"}).
			AddRow(yesterday, 60.0))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Trend, 7)

	byDay := make(map[string]DailyPoint, len(d.Trend))
	for _, p := range d.Trend {
		byDay[p.Day] = p
	}
	yd := byDay[yesterday.Format("2006-01-02")]
	assert.Equal(t, 3, yd.Bookings)
	assert.Equal(t, 60.0, yd.Revenue)
	td := byDay[today.Format("2006-01-02")]
	assert.Equal(t, 1, td.Bookings)
	assert.Zero(t, td.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverviewAggregatesHistory(t *testing.T) {
	svc, mock := newStatsService(t)

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -20)
	ci := now.Add(-3 * time.Hour)
	co := now.Add(-time.Hour)

	history := sqlmock.NewRows(detailColumns).
		// booked this week, completed at lot 2
		AddRow(3, 9, 42, "KA01AB1234", now.Add(-time.Hour), ci, co, 40.0, "completed", "S001", 2, "Airport", 20.0).
		// completed twice at lot 1, weeks ago
		AddRow(2, 7, 42, "KA01AB1234", old, old, old.Add(time.Hour), 20.0, "completed", "S002", 1, "Central", 20.0).
		AddRow(1, 7, 42, "KA01AB1234", old.AddDate(0, 0, -1), old, old.Add(time.Hour), 25.0, "completed", "S002", 1, "Central", 20.0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.user_id = ? ORDER BY r.booking_timestamp DESC")).
		WithArgs(42).
		WillReturnRows(history)

	completed := sqlmock.NewRows(detailColumns).
		AddRow(3, 9, 42, "KA01AB1234", now.Add(-time.Hour), ci, co, 40.0, "completed", "S001", 2, "Airport", 20.0).
		AddRow(2, 7, 42, "KA01AB1234", old, old, old.Add(time.Hour), 20.0, "completed", "S002", 1, "Central", 20.0)
	mock.ExpectQuery(regexp.QuoteMeta("AND r.status = 'completed' ORDER BY r.check_out_timestamp DESC")).
		WithArgs(42, 10).
		WillReturnRows(completed)

	ov, err := svc.Overview(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, ov.History, 3)
	assert.Equal(t, 1, ov.WeeklyCount)
	// chart order: oldest of the returned completed stays first
	assert.Equal(t, []float64{20.0, 40.0}, ov.RecentCosts)
	require.Len(t, ov.MostVisited, 2)
	assert.Equal(t, "Central", ov.MostVisited[0].LotName)
	assert.Equal(t, 2, ov.MostVisited[0].Visits)
	assert.Equal(t, "Airport", ov.MostVisited[1].LotName)
	assert.Equal(t, 1, ov.MostVisited[1].Visits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
