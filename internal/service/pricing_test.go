package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCostRoundsPartialHoursUp(t *testing.T) {
	checkIn := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	checkOut := checkIn.Add(90 * time.Minute)
	assert.Equal(t, 40.0, Cost(checkIn, checkOut, 20))
}

func TestCostMinimumOneHour(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 20.0, Cost(at, at, 20))
}

func TestCostExactHoursNotInflated(t *testing.T) {
	checkIn := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 40.0, Cost(checkIn, checkIn.Add(2*time.Hour), 20))
}

func TestCostNegativeDurationBillsMinimum(t *testing.T) {
	checkIn := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 15.5, Cost(checkIn, checkIn.Add(-time.Minute), 15.5))
}

func TestCostTwoDecimalPlaces(t *testing.T) {
	checkIn := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// 3 charged hours at 3.333 is 9.999, rounded to 10.00
	assert.Equal(t, 10.0, Cost(checkIn, checkIn.Add(2*time.Hour+time.Minute), 3.333))
}

func TestCostZeroRate(t *testing.T) {
	checkIn := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, Cost(checkIn, checkIn.Add(5*time.Hour), 0))
}

func TestBillableHours(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		d    time.Duration
		want int64
	}{
		{0, 1},
		{time.Second, 1},
		{time.Hour, 1},
		{time.Hour + time.Second, 2},
		{90 * time.Minute, 2},
		{24 * time.Hour, 24},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, billableHours(base, base.Add(tc.d)), "duration %s", tc.d)
	}
}
