package model

import "time"

// Spot status values.  A spot moves Available -> Reserved when a
// booking claims it, Reserved -> Occupied on check-in, and back to
// Available on park-out or cancellation.  The values are stored
// verbatim in the parking_spots.status column.
const (
	SpotAvailable = "Available"
	SpotReserved  = "Reserved"
	SpotOccupied  = "Occupied"
)

// ParkingSpot is an individually bookable unit within a lot.  Spot
// numbers follow a zero-padded sequence token ("S001", "S002", ...)
// and are unique within their lot; the database enforces this with a
// unique constraint on (lot_id, spot_number).
//
// Fields:
//  ID         – primary key identifier.
//  LotID      – lot to which this spot belongs.
//  SpotNumber – sequence token unique within the lot.
//  Status     – one of Available, Reserved, Occupied.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type ParkingSpot struct {
	ID         uint64    // parking_spots.id
	LotID      uint64    // parking_spots.lot_id
	SpotNumber string    // parking_spots.spot_number
	Status     string    // parking_spots.status
	CreatedAt  time.Time // parking_spots.created_at
	UpdatedAt  time.Time // parking_spots.updated_at
}
