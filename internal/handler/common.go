package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel comparisons in respondError
	"net/http"
	"strconv" // strconv converts strings to numeric types
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/parking-reservation/internal/repository" // repository holds sentinel errors
)

// timeFormat is the wire format for timestamps; all values are UTC.
const timeFormat = time.RFC3339

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the named path parameter as a positive uint64.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// reservationJSON shapes a reservation with its spot/lot context for
// responses.  Nullable columns appear as null until set; a deleted
// spot leaves spot fields null while the reservation itself survives.
func reservationJSON(d repository.ReservationDetail) echo.Map {
	m := echo.Map{
		"id":                d.ID,
		"user_id":           d.UserID,
		"vehicle_number":    d.VehicleNumber,
		"booking_timestamp": d.BookingTimestamp.Format(timeFormat),
		"status":            d.Status,
	}
	if d.SpotID != nil {
		m["spot_id"] = *d.SpotID
		m["spot_number"] = d.SpotNumber
		m["lot_id"] = d.LotID
		m["lot_name"] = d.LotName
		m["price_per_hour"] = d.PricePerHour
	} else {
		m["spot_id"] = nil
	}
	if d.CheckInTimestamp != nil {
		m["check_in_timestamp"] = d.CheckInTimestamp.Format(timeFormat)
	} else {
		m["check_in_timestamp"] = nil
	}
	if d.CheckOutTimestamp != nil {
		m["check_out_timestamp"] = d.CheckOutTimestamp.Format(timeFormat)
	} else {
		m["check_out_timestamp"] = nil
	}
	if d.TotalCost != nil {
		m["total_cost"] = *d.TotalCost
	} else {
		m["total_cost"] = nil
	}
	return m
}

// respondError maps the repository sentinel errors onto HTTP statuses.
// State conflicts (lost booking races, bad transitions, capacity and
// deletion guards, store inconsistencies) become 409, ownership
// violations 403, missing entities 404, anything else a generic 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNoAvailableSpot),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrCapacity),
		errors.Is(err, repository.ErrDeletionBlocked),
		errors.Is(err, repository.ErrConsistency),
		errors.Is(err, repository.ErrLotExists),
		errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrLotNotFound),
		errors.Is(err, repository.ErrSpotNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
