package service

import (
	"context"
	"time"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// trendDays is the length of the trailing window used by the daily
// booking and revenue series.
const trendDays = 7

// DailyPoint is one day of a trend series.  Day is a UTC date in
// YYYY-MM-DD form.
type DailyPoint struct {
	Day      string
	Bookings int
	Revenue  float64
}

// Dashboard aggregates the admin overview: spot and reservation counts
// by status, the registered user count, and the trailing 7-day booking
// and revenue series.  Days without activity carry zeros.
type Dashboard struct {
	SpotsByStatus        map[string]int
	ReservationsByStatus map[string]int
	RegisteredUsers      int
	Trend                []DailyPoint
}

// LotVisits tallies a user's completed stays per lot, used for the
// most-visited ranking.
type LotVisits struct {
	LotID   uint64
	LotName string
	Visits  int
}

// UserOverview aggregates one user's personal statistics: full
// reservation history newest first, the cost series of the last ten
// completed stays (oldest of the ten first, ready for charting), the
// number of bookings made in the trailing 7 days, and completed visits
// per lot, most visited first.
type UserOverview struct {
	History     []repository.ReservationDetail
	RecentCosts []float64
	WeeklyCount int
	MostVisited []LotVisits
}

// StatsService answers the read-only aggregation queries.  Empty
// stores yield zeroed structures, never errors.
type StatsService struct {
	users        *repository.UserRepo
	spots        *repository.SpotRepo
	reservations *repository.ReservationRepo
}

// NewStatsService constructs a StatsService.
func NewStatsService(users *repository.UserRepo, spots *repository.SpotRepo, reservations *repository.ReservationRepo) *StatsService {
	if users == nil || spots == nil || reservations == nil {
		panic("nil repository passed to NewStatsService")
	}
	return &StatsService{users: users, spots: spots, reservations: reservations}
}

// windowStart returns the first UTC day of the trailing window ending
// today, truncated to midnight.
func windowStart(now time.Time) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -(trendDays - 1))
}

// Dashboard builds the admin overview.
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	spotCounts, err := s.spots.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	resCounts, err := s.reservations.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.CountNonAdmins(ctx)
	if err != nil {
		return nil, err
	}
	since := windowStart(time.Now())
	bookings, err := s.reservations.DailyBookingCounts(ctx, since)
	if err != nil {
		return nil, err
	}
	revenue, err := s.reservations.DailyRevenue(ctx, since)
	if err != nil {
		return nil, err
	}
	trend := make([]DailyPoint, 0, trendDays)
	for i := 0; i < trendDays; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		trend = append(trend, DailyPoint{
			Day:      day,
			Bookings: bookings[day],
			Revenue:  revenue[day],
		})
	}
	// missing statuses still appear with zero counts so consumers can
	// iterate a fixed key set
	for _, st := range []string{model.SpotAvailable, model.SpotReserved, model.SpotOccupied} {
		if _, ok := spotCounts[st]; !ok {
			spotCounts[st] = 0
		}
	}
	for _, st := range []string{model.ReservationPending, model.ReservationActive, model.ReservationCompleted, model.ReservationCancelled} {
		if _, ok := resCounts[st]; !ok {
			resCounts[st] = 0
		}
	}
	return &Dashboard{
		SpotsByStatus:        spotCounts,
		ReservationsByStatus: resCounts,
		RegisteredUsers:      users,
		Trend:                trend,
	}, nil
}

// Overview builds one user's personal statistics.
func (s *StatsService) Overview(ctx context.Context, userID uint64) (*UserOverview, error) {
	history, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.reservations.CompletedByUser(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	// CompletedByUser is newest first; the chart wants oldest of the
	// ten first
	costs := make([]float64, 0, len(completed))
	for i := len(completed) - 1; i >= 0; i-- {
		if completed[i].TotalCost != nil {
			costs = append(costs, *completed[i].TotalCost)
		}
	}
	since := windowStart(time.Now())
	weekly := 0
	visits := make(map[uint64]*LotVisits)
	var order []uint64
	for _, d := range history {
		if !d.BookingTimestamp.Before(since) {
			weekly++
		}
		if d.Status == model.ReservationCompleted && d.LotID != 0 {
			v, ok := visits[d.LotID]
			if !ok {
				v = &LotVisits{LotID: d.LotID, LotName: d.LotName}
				visits[d.LotID] = v
				order = append(order, d.LotID)
			}
			v.Visits++
		}
	}
	most := make([]LotVisits, 0, len(order))
	for _, id := range order {
		most = append(most, *visits[id])
	}
	// stable selection sort keeps first-seen order among equal counts
	for i := 0; i < len(most); i++ {
		best := i
		for j := i + 1; j < len(most); j++ {
			if most[j].Visits > most[best].Visits {
				best = j
			}
		}
		if best != i {
			picked := most[best]
			copy(most[i+1:best+1], most[i:best])
			most[i] = picked
		}
	}
	return &UserOverview{
		History:     history,
		RecentCosts: costs,
		WeeklyCount: weekly,
		MostVisited: most,
	}, nil
}
