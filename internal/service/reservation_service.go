package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// ReservationService is the single authority for the reservation state
// machine.  The lifecycle is pending -> active -> completed, with
// pending -> cancelled as the only other edge, and every transition
// keeps the referenced spot's status in step: booking claims a spot
// (Available -> Reserved), check-in occupies it (Reserved -> Occupied),
// park-out and cancel release it back to Available.
//
// Each method runs in one transaction against the store.  Ownership is
// verified before any mutation, and a spot/reservation mismatch is
// surfaced as ErrConsistency rather than silently corrected.
type ReservationService struct {
	lots         *repository.LotRepo
	spots        *repository.SpotRepo
	reservations *repository.ReservationRepo
}

// NewReservationService constructs a ReservationService.  All
// dependencies must be non-nil.
func NewReservationService(lots *repository.LotRepo, spots *repository.SpotRepo, reservations *repository.ReservationRepo) *ReservationService {
	if lots == nil || spots == nil || reservations == nil {
		panic("nil repository passed to NewReservationService")
	}
	return &ReservationService{lots: lots, spots: spots, reservations: reservations}
}

// Book reserves the lowest-numbered Available spot in the lot for the
// user.  The claim is a conditional update on the spot's status, so of
// two concurrent bookings racing for the last spot exactly one wins;
// the loser observes ErrNoAvailableSpot just as if the lot were full.
// On success the new pending reservation and the claimed spot are
// returned.
func (s *ReservationService) Book(ctx context.Context, lotID, userID uint64, vehicleNumber string) (*model.Reservation, *model.ParkingSpot, error) {
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	lot, err := s.lots.GetByIDTx(ctx, tx, lotID)
	if err != nil {
		return nil, nil, err
	}
	if !lot.IsActive {
		return nil, nil, fmt.Errorf("lot %q is closed: %w", lot.Name, repository.ErrNoAvailableSpot)
	}
	spot, err := s.spots.FindLowestAvailableTx(ctx, tx, lotID)
	if err != nil {
		return nil, nil, err
	}
	won, err := s.spots.ClaimTx(ctx, tx, spot.ID)
	if err != nil {
		return nil, nil, err
	}
	if !won {
		return nil, nil, fmt.Errorf("spot %s claimed concurrently: %w", spot.SpotNumber, repository.ErrNoAvailableSpot)
	}
	spot.Status = model.SpotReserved
	res := &model.Reservation{
		SpotID:           &spot.ID,
		UserID:           userID,
		VehicleNumber:    vehicleNumber,
		BookingTimestamp: time.Now().UTC(),
		Status:           model.ReservationPending,
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return res, spot, nil
}

// CheckIn marks the user's arrival: reservation pending -> active with
// the check-in timestamp, spot Reserved -> Occupied.  A second
// check-in returns ErrInvalidTransition and leaves the original
// timestamp untouched.  A pending reservation whose spot is no longer
// Reserved is reported as ErrConsistency.
func (s *ReservationService) CheckIn(ctx context.Context, resID, userID uint64) (*model.Reservation, error) {
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := s.reservations.GetByIDTx(ctx, tx, resID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if res.Status != model.ReservationPending {
		return nil, fmt.Errorf("check-in from %s: %w", res.Status, repository.ErrInvalidTransition)
	}
	if res.SpotID == nil {
		return nil, fmt.Errorf("pending reservation without a spot: %w", repository.ErrConsistency)
	}
	spot, err := s.spots.GetByIDTx(ctx, tx, *res.SpotID)
	if err != nil {
		return nil, err
	}
	if spot.Status != model.SpotReserved {
		return nil, fmt.Errorf("spot %s is %s, want Reserved: %w", spot.SpotNumber, spot.Status, repository.ErrConsistency)
	}
	now := time.Now().UTC()
	if err := s.reservations.MarkActiveTx(ctx, tx, res.ID, now); err != nil {
		return nil, err
	}
	if err := s.spots.UpdateStatusTx(ctx, tx, spot.ID, model.SpotReserved, model.SpotOccupied); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationActive
	res.CheckInTimestamp = &now
	return res, nil
}

// ParkOut marks the user's departure: reservation active -> completed
// with the check-out timestamp and the final cost, spot Occupied ->
// Available.  An active reservation with no check-in timestamp is a
// store inconsistency; no cost is ever derived from the booking time,
// the operation fails with ErrConsistency instead.
func (s *ReservationService) ParkOut(ctx context.Context, resID, userID uint64) (*model.Reservation, error) {
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := s.reservations.GetByIDTx(ctx, tx, resID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if res.Status != model.ReservationActive {
		return nil, fmt.Errorf("park-out from %s: %w", res.Status, repository.ErrInvalidTransition)
	}
	if res.SpotID == nil {
		return nil, fmt.Errorf("active reservation without a spot: %w", repository.ErrConsistency)
	}
	if res.CheckInTimestamp == nil {
		return nil, fmt.Errorf("active reservation without check-in time: %w", repository.ErrConsistency)
	}
	spot, err := s.spots.GetByIDTx(ctx, tx, *res.SpotID)
	if err != nil {
		return nil, err
	}
	if spot.Status != model.SpotOccupied {
		return nil, fmt.Errorf("spot %s is %s, want Occupied: %w", spot.SpotNumber, spot.Status, repository.ErrConsistency)
	}
	lot, err := s.lots.GetByIDTx(ctx, tx, spot.LotID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	cost := Cost(*res.CheckInTimestamp, now, lot.PricePerHour)
	if err := s.reservations.MarkCompletedTx(ctx, tx, res.ID, now, cost); err != nil {
		return nil, err
	}
	if err := s.spots.UpdateStatusTx(ctx, tx, spot.ID, model.SpotOccupied, model.SpotAvailable); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationCompleted
	res.CheckOutTimestamp = &now
	res.TotalCost = &cost
	return res, nil
}

// Cancel abandons a pending reservation before arrival.  Cancelling
// after check-in is not allowed and returns ErrInvalidTransition.  The
// spot is released only when it is still Reserved; any other status
// means another actor already moved it and releasing would corrupt
// that state.
func (s *ReservationService) Cancel(ctx context.Context, resID, userID uint64) (*model.Reservation, error) {
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := s.reservations.GetByIDTx(ctx, tx, resID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if res.Status != model.ReservationPending {
		return nil, fmt.Errorf("cancel from %s: %w", res.Status, repository.ErrInvalidTransition)
	}
	if err := s.reservations.MarkCancelledTx(ctx, tx, res.ID); err != nil {
		return nil, err
	}
	if res.SpotID != nil {
		spot, err := s.spots.GetByIDTx(ctx, tx, *res.SpotID)
		if err != nil {
			return nil, err
		}
		if spot.Status == model.SpotReserved {
			if err := s.spots.UpdateStatusTx(ctx, tx, spot.ID, model.SpotReserved, model.SpotAvailable); err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationCancelled
	return res, nil
}

// EstimateCost reports what an active reservation would cost if the
// vehicle parked out now.  Read-only; no transaction needed.
func (s *ReservationService) EstimateCost(ctx context.Context, resID, userID uint64) (float64, error) {
	res, err := s.reservations.GetByID(ctx, resID)
	if err != nil {
		return 0, err
	}
	if res.UserID != userID {
		return 0, repository.ErrForbidden
	}
	if res.Status != model.ReservationActive || res.CheckInTimestamp == nil {
		return 0, fmt.Errorf("estimate for %s reservation: %w", res.Status, repository.ErrInvalidTransition)
	}
	if res.SpotID == nil {
		return 0, fmt.Errorf("active reservation without a spot: %w", repository.ErrConsistency)
	}
	spot, err := s.spots.GetByID(ctx, *res.SpotID)
	if err != nil {
		return 0, err
	}
	lot, err := s.lots.GetByID(ctx, spot.LotID)
	if err != nil {
		return 0, err
	}
	return Estimate(*res.CheckInTimestamp, time.Now().UTC(), lot.PricePerHour), nil
}
