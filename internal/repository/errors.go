// Package repository defines error types that are reused across multiple
// repositories and by the service layer. These sentinel values allow higher
// layers such as handlers to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current user is
// not authorized to act on a resource owned by someone else, while
// ErrNoAvailableSpot signals that a booking lost the race for the last
// free spot in a lot.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNoAvailableSpot is returned when a booking cannot proceed because
// the target lot has no Available spot, or because a concurrent booking
// claimed the last one first.
var ErrNoAvailableSpot = errors.New("no available spot")

// ErrInvalidTransition is returned when a reservation operation is
// attempted in a state that does not permit it, such as checking in a
// reservation that is not pending or cancelling one that is already
// active. Handlers should translate this into an HTTP 409 response.
var ErrInvalidTransition = errors.New("invalid reservation transition")

// ErrCapacity is returned when a lot resize cannot be satisfied: either
// the requested decrease would require removing spots that are in use,
// or the 3-digit spot number scheme has no suffixes left for an
// increase.
var ErrCapacity = errors.New("capacity change cannot be satisfied")

// ErrDeletionBlocked is returned when a lot or spot cannot be deleted
// because spots are occupied or reserved, or because pending/active
// reservations still reference them.
var ErrDeletionBlocked = errors.New("deletion blocked by occupancy or reservations")

// ErrConsistency is returned when a reservation and its spot disagree,
// e.g. a pending reservation whose spot is no longer Reserved. The
// mismatch is surfaced rather than silently corrected.
var ErrConsistency = errors.New("reservation and spot state are inconsistent")

// Not-found sentinels for the individual entities.
var (
	ErrLotNotFound         = errors.New("parking lot not found")
	ErrSpotNotFound        = errors.New("parking spot not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// ErrEmailExists is returned by user creation when the email address is
// already registered.
var ErrEmailExists = errors.New("email already exists")
