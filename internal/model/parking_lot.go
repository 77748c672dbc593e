package model

import "time"

// ParkingLot describes a parking facility with a fixed spot capacity
// and an hourly price.  Each lot owns an ordered collection of
// parking spots; deleting a lot cascades to its spots.  The invariant
// maintained by the lot service is that MaximumCapacity always equals
// the number of spot rows belonging to the lot after any successful
// create, resize or spot deletion.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – unique human readable lot name.
//  Address         – street address of the facility.
//  PinCode         – postal code used by lot search.
//  PricePerHour    – hourly parking rate (>= 0).
//  MaximumCapacity – declared number of spots (>= 1).
//  IsActive        – whether the lot is open for booking.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type ParkingLot struct {
	ID              uint64    // parking_lots.id
	Name            string    // parking_lots.name
	Address         string    // parking_lots.address
	PinCode         string    // parking_lots.pin_code
	PricePerHour    float64   // parking_lots.price_per_hour
	MaximumCapacity int       // parking_lots.maximum_capacity
	IsActive        bool      // parking_lots.is_active
	CreatedAt       time.Time // parking_lots.created_at
	UpdatedAt       time.Time // parking_lots.updated_at
}
