package service

import (
	"math"
	"time"
)

// Cost computes the parking fee for a stay between checkIn and
// checkOut at the given hourly rate.  Partial hours are billed as full
// hours and every stay is billed for at least one hour, so a stay of
// ninety minutes costs two hours and a zero-length stay costs one.
// The result is rounded to two decimal places.
func Cost(checkIn, checkOut time.Time, pricePerHour float64) float64 {
	hours := billableHours(checkIn, checkOut)
	return math.Round(float64(hours)*pricePerHour*100) / 100
}

// billableHours returns the number of whole hours charged for the
// stay.  Negative durations are treated as zero length and still bill
// the one-hour minimum.
func billableHours(checkIn, checkOut time.Time) int64 {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 1
	}
	hours := int64(math.Ceil(d.Hours()))
	if hours < 1 {
		hours = 1
	}
	return hours
}

// Estimate reports the fee an active reservation would incur if the
// vehicle parked out at the given instant.  Used by the cost preview
// endpoint so users can see the running total.
func Estimate(checkIn time.Time, now time.Time, pricePerHour float64) float64 {
	return Cost(checkIn, now, pricePerHour)
}
