package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// maxSpotSuffix is the highest numeric suffix the 3-digit spot naming
// scheme can represent.  A lot can therefore never hold more than 999
// spots.
const maxSpotSuffix = 999

// LotService is the single authority for lot lifecycle operations:
// creating a lot together with its spots, reconciling the spot set on
// a capacity change, and deleting lots or individual spots under the
// occupancy guards.  Every mutating method runs inside one transaction
// and rolls back fully on failure.
type LotService struct {
	lots         *repository.LotRepo
	spots        *repository.SpotRepo
	reservations *repository.ReservationRepo
}

// NewLotService constructs a LotService.  All dependencies must be
// non-nil.
func NewLotService(lots *repository.LotRepo, spots *repository.SpotRepo, reservations *repository.ReservationRepo) *LotService {
	if lots == nil || spots == nil || reservations == nil {
		panic("nil repository passed to NewLotService")
	}
	return &LotService{lots: lots, spots: spots, reservations: reservations}
}

// spotNumber formats the canonical spot number for a numeric suffix.
func spotNumber(n int) string {
	return fmt.Sprintf("S%03d", n)
}

// nextSpotNumbers allocates count new spot numbers given the numbers
// already present in the lot.  Existing numbers are reduced to their
// numeric suffixes (the letter prefix is ignored) and the lowest
// unused suffixes are taken, so a lot with S001 and S003 gains S002
// before S004.  Returns ErrCapacity when the suffix space runs out.
func nextSpotNumbers(existing []string, count int) ([]string, error) {
	used := make(map[int]struct{}, len(existing))
	for _, num := range existing {
		digits := strings.TrimLeftFunc(num, func(r rune) bool { return r < '0' || r > '9' })
		if n, err := strconv.Atoi(digits); err == nil {
			used[n] = struct{}{}
		}
	}
	out := make([]string, 0, count)
	for n := 1; n <= maxSpotSuffix && len(out) < count; n++ {
		if _, ok := used[n]; ok {
			continue
		}
		out = append(out, spotNumber(n))
	}
	if len(out) < count {
		return nil, fmt.Errorf("allocating %d spot numbers: %w", count, repository.ErrCapacity)
	}
	return out, nil
}

// CreateLot inserts a lot and materializes MaximumCapacity Available
// spots numbered S001 upward, all in one transaction.  The generated
// lot ID and timestamps are populated on l.
func (s *LotService) CreateLot(ctx context.Context, l *model.ParkingLot) error {
	if l.MaximumCapacity < 1 {
		return fmt.Errorf("capacity %d: %w", l.MaximumCapacity, repository.ErrCapacity)
	}
	if l.MaximumCapacity > maxSpotSuffix {
		return fmt.Errorf("capacity %d exceeds spot numbering: %w", l.MaximumCapacity, repository.ErrCapacity)
	}
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.lots.CreateTx(ctx, tx, l); err != nil {
		return err
	}
	numbers, err := nextSpotNumbers(nil, l.MaximumCapacity)
	if err != nil {
		return err
	}
	spots := make([]model.ParkingSpot, len(numbers))
	for i, num := range numbers {
		spots[i] = model.ParkingSpot{LotID: l.ID, SpotNumber: num, Status: model.SpotAvailable}
	}
	if err := s.spots.CreateBulkTx(ctx, tx, spots); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateLot applies the edited lot fields and reconciles the spot set
// with the new MaximumCapacity in the same transaction.
//
// An increase adds spots using the lowest unused numeric suffixes.  A
// decrease removes the highest-numbered spots that are Available and
// have no pending or active reservation; when fewer spots qualify than
// the decrease requires the whole edit is rejected with ErrCapacity
// and nothing changes, including the non-capacity fields.
func (s *LotService) UpdateLot(ctx context.Context, l *model.ParkingLot) error {
	if l.MaximumCapacity < 1 {
		return fmt.Errorf("capacity %d: %w", l.MaximumCapacity, repository.ErrCapacity)
	}
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.lots.GetByIDTx(ctx, tx, l.ID); err != nil {
		return err
	}
	existing, err := s.spots.NumbersByLotTx(ctx, tx, l.ID)
	if err != nil {
		return err
	}
	if err := s.reconcileTx(ctx, tx, l.ID, existing, l.MaximumCapacity); err != nil {
		return err
	}
	if err := s.lots.UpdateTx(ctx, tx, l); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// reconcileTx adjusts the lot's spot rows so their count equals target.
func (s *LotService) reconcileTx(ctx context.Context, tx *sql.Tx, lotID uint64, existing []string, target int) error {
	current := len(existing)
	switch {
	case target > current:
		numbers, err := nextSpotNumbers(existing, target-current)
		if err != nil {
			return err
		}
		spots := make([]model.ParkingSpot, len(numbers))
		for i, num := range numbers {
			spots[i] = model.ParkingSpot{LotID: lotID, SpotNumber: num, Status: model.SpotAvailable}
		}
		return s.spots.CreateBulkTx(ctx, tx, spots)
	case target < current:
		delta := current - target
		removable, err := s.spots.RemovableByLotTx(ctx, tx, lotID, delta)
		if err != nil {
			return err
		}
		if len(removable) < delta {
			return fmt.Errorf("only %d of %d spots removable: %w", len(removable), delta, repository.ErrCapacity)
		}
		ids := make([]uint64, len(removable))
		for i, sp := range removable {
			ids[i] = sp.ID
		}
		return s.spots.DeleteByIDsTx(ctx, tx, ids)
	}
	return nil
}

// DeleteLot removes a lot and, via the cascade constraint, all of its
// spots.  The deletion is refused with ErrDeletionBlocked while any
// spot is Reserved or Occupied or any pending/active reservation
// references a spot of the lot.  Completed and cancelled reservation
// history survives with spot_id set to NULL.
func (s *LotService) DeleteLot(ctx context.Context, lotID uint64) error {
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.lots.GetByIDTx(ctx, tx, lotID); err != nil {
		return err
	}
	inUse, err := s.spots.CountInUseByLotTx(ctx, tx, lotID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return fmt.Errorf("%d spots in use: %w", inUse, repository.ErrDeletionBlocked)
	}
	blocking, err := s.reservations.CountBlockingForLotTx(ctx, tx, lotID)
	if err != nil {
		return err
	}
	if blocking > 0 {
		return fmt.Errorf("%d open reservations: %w", blocking, repository.ErrDeletionBlocked)
	}
	if err := s.lots.DeleteTx(ctx, tx, lotID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteSpot removes a single spot and decrements the lot's
// maximum_capacity in the same transaction, keeping the capacity
// invariant intact.  Blocked while the spot is not Available or a
// pending/active reservation references it.
func (s *LotService) DeleteSpot(ctx context.Context, spotID uint64) error {
	tx, err := s.lots.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	spot, err := s.spots.GetByIDTx(ctx, tx, spotID)
	if err != nil {
		return err
	}
	if spot.Status != model.SpotAvailable {
		return fmt.Errorf("spot %s is %s: %w", spot.SpotNumber, spot.Status, repository.ErrDeletionBlocked)
	}
	blocked, err := s.reservations.HasBlockingForSpotTx(ctx, tx, spotID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("spot %s has open reservations: %w", spot.SpotNumber, repository.ErrDeletionBlocked)
	}
	lot, err := s.lots.GetByIDTx(ctx, tx, spot.LotID)
	if err != nil {
		return err
	}
	if err := s.spots.DeleteByIDsTx(ctx, tx, []uint64{spotID}); err != nil {
		return err
	}
	if err := s.lots.SetCapacityTx(ctx, tx, lot.ID, lot.MaximumCapacity-1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
