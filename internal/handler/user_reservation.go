package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/queue"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle to customers:
// booking a spot, checking in, parking out, cancelling, and the
// read-only listing, estimate and overview endpoints.  The state
// machine itself lives in the reservation service; this layer binds
// requests, maps errors and publishes lifecycle events after commit.
type ReservationHandler struct {
	Lots   *repository.LotRepo
	Spots  *repository.SpotRepo
	Resvs  *repository.ReservationRepo
	ResSvc *service.ReservationService
	Stats  *service.StatsService
}

// NewReservationHandler constructs a ReservationHandler and panics if
// any dependency is nil.
func NewReservationHandler(lots *repository.LotRepo, spots *repository.SpotRepo, resvs *repository.ReservationRepo, resSvc *service.ReservationService, stats *service.StatsService) *ReservationHandler {
	if lots == nil || spots == nil || resvs == nil || resSvc == nil || stats == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Lots: lots, Spots: spots, Resvs: resvs, ResSvc: resSvc, Stats: stats}
}

func ownReservationJSON(res *model.Reservation) echo.Map {
	m := echo.Map{
		"id":                res.ID,
		"user_id":           res.UserID,
		"vehicle_number":    res.VehicleNumber,
		"booking_timestamp": res.BookingTimestamp.Format(timeFormat),
		"status":            res.Status,
	}
	if res.SpotID != nil {
		m["spot_id"] = *res.SpotID
	} else {
		m["spot_id"] = nil
	}
	if res.CheckInTimestamp != nil {
		m["check_in_timestamp"] = res.CheckInTimestamp.Format(timeFormat)
	} else {
		m["check_in_timestamp"] = nil
	}
	if res.CheckOutTimestamp != nil {
		m["check_out_timestamp"] = res.CheckOutTimestamp.Format(timeFormat)
	} else {
		m["check_out_timestamp"] = nil
	}
	if res.TotalCost != nil {
		m["total_cost"] = *res.TotalCost
	} else {
		m["total_cost"] = nil
	}
	return m
}

// publishEvent emits a lifecycle event for a reservation whose spot is
// still known.  The spot and lot are loaded outside any transaction;
// publish failures are logged by the queue package and never affect
// the HTTP response.
func (h *ReservationHandler) publishEvent(ctx context.Context, kind string, res *model.Reservation, occurredAt time.Time) {
	if res.SpotID == nil {
		return
	}
	spot, err := h.Spots.GetByID(ctx, *res.SpotID)
	if err != nil {
		return
	}
	lot, err := h.Lots.GetByID(ctx, spot.LotID)
	if err != nil {
		return
	}
	ev := queue.ReservationEvent{
		Kind:          kind,
		ReservationID: res.ID,
		UserID:        res.UserID,
		LotID:         lot.ID,
		LotName:       lot.Name,
		SpotNumber:    spot.SpotNumber,
		VehicleNumber: res.VehicleNumber,
		OccurredAt:    occurredAt.Format(time.RFC3339),
	}
	if res.TotalCost != nil {
		ev.TotalCost = *res.TotalCost
	}
	_ = queue.PublishReservationEvent(ctx, ev)
}

// Book handles POST /v1/reservations.  The lowest-numbered Available
// spot in the requested lot is claimed for the caller; losing the race
// for the last spot reads the same as a full lot.
func (h *ReservationHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		LotID         uint64 `json:"lot_id"`
		VehicleNumber string `json:"vehicle_number"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.VehicleNumber = strings.ToUpper(strings.TrimSpace(req.VehicleNumber))
	if req.LotID == 0 || req.VehicleNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lot_id and vehicle_number required"})
	}
	ctx := c.Request().Context()
	res, spot, err := h.ResSvc.Book(ctx, req.LotID, userID, req.VehicleNumber)
	if err != nil {
		return respondError(c, err)
	}
	if lot, lerr := h.Lots.GetByID(ctx, req.LotID); lerr == nil {
		_ = queue.PublishReservationEvent(ctx, queue.ReservationEvent{
			Kind:          queue.KindBooked,
			ReservationID: res.ID,
			UserID:        userID,
			LotID:         lot.ID,
			LotName:       lot.Name,
			SpotNumber:    spot.SpotNumber,
			VehicleNumber: res.VehicleNumber,
			OccurredAt:    res.BookingTimestamp.Format(time.RFC3339),
		})
	}
	m := ownReservationJSON(res)
	m["spot_number"] = spot.SpotNumber
	return c.JSON(http.StatusCreated, m)
}

// CheckIn handles POST /v1/reservations/:id/check-in.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	res, err := h.ResSvc.CheckIn(ctx, id, userID)
	if err != nil {
		return respondError(c, err)
	}
	if res.CheckInTimestamp != nil {
		h.publishEvent(ctx, queue.KindCheckedIn, res, *res.CheckInTimestamp)
	}
	return c.JSON(http.StatusOK, ownReservationJSON(res))
}

// ParkOut handles POST /v1/reservations/:id/park-out.  The final cost
// is computed here and a completion event is published once the
// transaction has committed.
func (h *ReservationHandler) ParkOut(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	res, err := h.ResSvc.ParkOut(ctx, id, userID)
	if err != nil {
		return respondError(c, err)
	}
	if res.CheckOutTimestamp != nil {
		h.publishEvent(ctx, queue.KindCompleted, res, *res.CheckOutTimestamp)
	}
	return c.JSON(http.StatusOK, ownReservationJSON(res))
}

// Cancel handles POST /v1/reservations/:id/cancel.  Only pending
// reservations can be abandoned; after check-in the stay must be
// completed through park-out.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	res, err := h.ResSvc.Cancel(ctx, id, userID)
	if err != nil {
		return respondError(c, err)
	}
	h.publishEvent(ctx, queue.KindCancelled, res, time.Now().UTC())
	return c.JSON(http.StatusOK, ownReservationJSON(res))
}

// MyReservations handles GET /v1/reservations, listing the caller's
// reservations newest first.
func (h *ReservationHandler) MyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	history, err := h.Resvs.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservations failed"})
	}
	out := make([]echo.Map, 0, len(history))
	for _, d := range history {
		out = append(out, reservationJSON(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Estimate handles GET /v1/reservations/:id/estimate, previewing the
// cost of an active reservation as if the vehicle parked out now.
func (h *ReservationHandler) Estimate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	cost, err := h.ResSvc.EstimateCost(c.Request().Context(), id, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"estimated_cost": cost})
}

// Overview handles GET /v1/me/overview: history, recent completed
// costs, weekly booking count, most visited lots.
func (h *ReservationHandler) Overview(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ov, err := h.Stats.Overview(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "overview failed"})
	}
	history := make([]echo.Map, 0, len(ov.History))
	for _, d := range ov.History {
		history = append(history, reservationJSON(d))
	}
	visited := make([]echo.Map, 0, len(ov.MostVisited))
	for _, v := range ov.MostVisited {
		visited = append(visited, echo.Map{
			"lot_id":   v.LotID,
			"lot_name": v.LotName,
			"visits":   v.Visits,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"history":      history,
		"recent_costs": ov.RecentCosts,
		"weekly_count": ov.WeeklyCount,
		"most_visited": visited,
	})
}
