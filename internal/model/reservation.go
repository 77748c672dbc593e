package model

import "time"

// Reservation status values.  The lifecycle is
// pending -> active -> completed on the happy path and
// pending -> cancelled when the user abandons the booking before
// arrival.  Completed and cancelled are terminal.
const (
	ReservationPending   = "pending"
	ReservationActive    = "active"
	ReservationCompleted = "completed"
	ReservationCancelled = "cancelled"
)

// Reservation records a user's booking of a parking spot across its
// lifecycle.  A reservation is a historical record: it is never
// physically deleted.  It references its user strongly and its spot
// weakly – when an Available spot is removed by a capacity decrease
// the spot_id column is set to NULL and the reservation survives.
//
// Fields:
//  ID                – primary key identifier.
//  SpotID            – spot that was booked (nil after spot deletion).
//  UserID            – user who made the booking.
//  VehicleNumber     – licence plate supplied at booking time.
//  BookingTimestamp  – when the booking was created (UTC).
//  CheckInTimestamp  – when the user arrived (nil until check-in).
//  CheckOutTimestamp – when the user left (nil until park-out).
//  TotalCost         – final fee, computed at park-out (nil before).
//  Status            – one of pending, active, completed, cancelled.
type Reservation struct {
	ID                uint64     // reservations.id
	SpotID            *uint64    // reservations.spot_id (nullable)
	UserID            uint64     // reservations.user_id
	VehicleNumber     string     // reservations.vehicle_number
	BookingTimestamp  time.Time  // reservations.booking_timestamp
	CheckInTimestamp  *time.Time // reservations.check_in_timestamp (nullable)
	CheckOutTimestamp *time.Time // reservations.check_out_timestamp (nullable)
	TotalCost         *float64   // reservations.total_cost (nullable)
	Status            string     // reservations.status
}
