package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/service"
)

// AdminSpotHandler exposes the per-spot admin surface: a detail view
// with the spot's reservation history and single-spot deletion.
type AdminSpotHandler struct {
	Spots  *repository.SpotRepo
	Resvs  *repository.ReservationRepo
	LotSvc *service.LotService
}

// NewAdminSpotHandler constructs an AdminSpotHandler and panics if any
// dependency is nil.
func NewAdminSpotHandler(spots *repository.SpotRepo, resvs *repository.ReservationRepo, lotSvc *service.LotService) *AdminSpotHandler {
	if spots == nil || resvs == nil || lotSvc == nil {
		panic("nil dependency passed to NewAdminSpotHandler")
	}
	return &AdminSpotHandler{Spots: spots, Resvs: resvs, LotSvc: lotSvc}
}

// SpotDetail handles GET /v1/admin/spots/:id.  The response carries the
// spot, the active reservation occupying it (null when free), and the
// spot's full reservation history, newest first.
func (h *AdminSpotHandler) SpotDetail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid spot id"})
	}
	ctx := c.Request().Context()
	spot, err := h.Spots.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	active, err := h.Resvs.ActiveBySpot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load active reservation failed"})
	}
	history, err := h.Resvs.ListBySpot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load history failed"})
	}
	historyOut := make([]echo.Map, 0, len(history))
	for _, d := range history {
		historyOut = append(historyOut, reservationJSON(d))
	}
	m := spotJSON(*spot)
	if active != nil {
		m["active_reservation"] = reservationJSON(*active)
	} else {
		m["active_reservation"] = nil
	}
	m["history"] = historyOut
	return c.JSON(http.StatusOK, m)
}

// DeleteSpot handles DELETE /v1/admin/spots/:id.  The lot's capacity is
// decremented with the deletion; an in-use spot or one with open
// reservations is refused.
func (h *AdminSpotHandler) DeleteSpot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid spot id"})
	}
	if err := h.LotSvc.DeleteSpot(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
