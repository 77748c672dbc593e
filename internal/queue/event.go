// Package queue defines the reservation lifecycle events exchanged over
// the message broker and the background consumer that records them.
package queue

// Event kinds published to the reservation.events queue.
const (
	KindBooked    = "booked"
	KindCheckedIn = "checked_in"
	KindCompleted = "completed"
	KindCancelled = "cancelled"
)

// ReservationEvent is published after a reservation lifecycle operation
// commits. It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type ReservationEvent struct {
	Kind          string  `json:"kind"`
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	LotID         uint64  `json:"lot_id"`
	LotName       string  `json:"lot_name"`
	SpotNumber    string  `json:"spot_number"`
	VehicleNumber string  `json:"vehicle_number"`
	TotalCost     float64 `json:"total_cost,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
