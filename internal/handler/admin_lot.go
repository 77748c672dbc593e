package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/service"
)

// AdminLotHandler exposes the lot management surface to admins: CRUD on
// lots plus the capacity reconciliation performed by the lot service.
// JWT authentication and the ADMIN role check run in middleware before
// any of these methods.
type AdminLotHandler struct {
	Lots   *repository.LotRepo
	Spots  *repository.SpotRepo
	LotSvc *service.LotService
}

// NewAdminLotHandler constructs an AdminLotHandler and panics if any
// dependency is nil.
func NewAdminLotHandler(lots *repository.LotRepo, spots *repository.SpotRepo, lotSvc *service.LotService) *AdminLotHandler {
	if lots == nil || spots == nil || lotSvc == nil {
		panic("nil dependency passed to NewAdminLotHandler")
	}
	return &AdminLotHandler{Lots: lots, Spots: spots, LotSvc: lotSvc}
}

type lotReq struct {
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	PinCode         string   `json:"pin_code"`
	PricePerHour    *float64 `json:"price_per_hour"`
	MaximumCapacity *int     `json:"maximum_capacity"`
	IsActive        *bool    `json:"is_active"`
}

func lotJSON(l *model.ParkingLot) echo.Map {
	return echo.Map{
		"id":               l.ID,
		"name":             l.Name,
		"address":          l.Address,
		"pin_code":         l.PinCode,
		"price_per_hour":   l.PricePerHour,
		"maximum_capacity": l.MaximumCapacity,
		"is_active":        l.IsActive,
		"created_at":       l.CreatedAt.Format(time.RFC3339),
		"updated_at":       l.UpdatedAt.Format(time.RFC3339),
	}
}

func spotJSON(s model.ParkingSpot) echo.Map {
	return echo.Map{
		"id":          s.ID,
		"lot_id":      s.LotID,
		"spot_number": s.SpotNumber,
		"status":      s.Status,
	}
}

// CreateLot handles POST /v1/admin/lots.  The lot and its full set of
// Available spots are created atomically; the response carries the
// persisted lot.
func (h *AdminLotHandler) CreateLot(c echo.Context) error {
	var req lotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.PricePerHour == nil || *req.PricePerHour < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour must be >= 0"})
	}
	if req.MaximumCapacity == nil || *req.MaximumCapacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "maximum_capacity must be >= 1"})
	}
	lot := &model.ParkingLot{
		Name:            req.Name,
		Address:         strings.TrimSpace(req.Address),
		PinCode:         strings.TrimSpace(req.PinCode),
		PricePerHour:    *req.PricePerHour,
		MaximumCapacity: *req.MaximumCapacity,
		IsActive:        true,
	}
	if req.IsActive != nil {
		lot.IsActive = *req.IsActive
	}
	if err := h.LotSvc.CreateLot(c.Request().Context(), lot); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, lotJSON(lot))
}

// ListLots handles GET /v1/admin/lots.  Every lot is returned together
// with its current count of Available spots.
func (h *AdminLotHandler) ListLots(c echo.Context) error {
	ctx := c.Request().Context()
	lots, err := h.Lots.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list lots failed"})
	}
	available, err := h.Spots.CountAvailableByLot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count spots failed"})
	}
	out := make([]echo.Map, 0, len(lots))
	for i := range lots {
		m := lotJSON(&lots[i])
		m["available_spots"] = available[lots[i].ID]
		out = append(out, m)
	}
	return c.JSON(http.StatusOK, echo.Map{"lots": out})
}

// GetLot handles GET /v1/admin/lots/:id, returning the lot and all of
// its spots ordered by spot number.
func (h *AdminLotHandler) GetLot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}
	ctx := c.Request().Context()
	lot, err := h.Lots.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	spots, err := h.Spots.ListByLot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list spots failed"})
	}
	spotsOut := make([]echo.Map, 0, len(spots))
	for _, s := range spots {
		spotsOut = append(spotsOut, spotJSON(s))
	}
	m := lotJSON(lot)
	m["spots"] = spotsOut
	return c.JSON(http.StatusOK, m)
}

// UpdateLot handles PUT /v1/admin/lots/:id.  Editable fields are
// applied over the stored lot; a capacity change triggers the
// reconciler inside the same transaction, so a rejected decrease
// leaves every field untouched.
func (h *AdminLotHandler) UpdateLot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}
	var req lotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	lot, err := h.Lots.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		lot.Name = name
	}
	if req.Address != "" {
		lot.Address = strings.TrimSpace(req.Address)
	}
	if req.PinCode != "" {
		lot.PinCode = strings.TrimSpace(req.PinCode)
	}
	if req.PricePerHour != nil {
		if *req.PricePerHour < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour must be >= 0"})
		}
		lot.PricePerHour = *req.PricePerHour
	}
	if req.MaximumCapacity != nil {
		if *req.MaximumCapacity < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "maximum_capacity must be >= 1"})
		}
		lot.MaximumCapacity = *req.MaximumCapacity
	}
	if req.IsActive != nil {
		lot.IsActive = *req.IsActive
	}
	if err := h.LotSvc.UpdateLot(ctx, lot); err != nil {
		return respondError(c, err)
	}
	updated, err := h.Lots.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lotJSON(updated))
}

// DeleteLot handles DELETE /v1/admin/lots/:id.  Blocked while any spot
// is in use or any open reservation references the lot.
func (h *AdminLotHandler) DeleteLot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}
	if err := h.LotSvc.DeleteLot(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
