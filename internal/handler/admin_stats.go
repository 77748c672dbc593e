package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/service"
)

// AdminStatsHandler serves the admin dashboard and user administration
// read views.
type AdminStatsHandler struct {
	Users *repository.UserRepo
	Resvs *repository.ReservationRepo
	Stats *service.StatsService
}

// NewAdminStatsHandler constructs an AdminStatsHandler and panics if
// any dependency is nil.
func NewAdminStatsHandler(users *repository.UserRepo, resvs *repository.ReservationRepo, stats *service.StatsService) *AdminStatsHandler {
	if users == nil || resvs == nil || stats == nil {
		panic("nil dependency passed to NewAdminStatsHandler")
	}
	return &AdminStatsHandler{Users: users, Resvs: resvs, Stats: stats}
}

// Dashboard handles GET /v1/admin/dashboard: spot and reservation
// counts by status, the registered user count, and the trailing 7-day
// booking/revenue series.  An empty store yields zeros, not an error.
func (h *AdminStatsHandler) Dashboard(c echo.Context) error {
	d, err := h.Stats.Dashboard(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard failed"})
	}
	trend := make([]echo.Map, 0, len(d.Trend))
	for _, p := range d.Trend {
		trend = append(trend, echo.Map{
			"day":      p.Day,
			"bookings": p.Bookings,
			"revenue":  p.Revenue,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"spots_by_status":        d.SpotsByStatus,
		"reservations_by_status": d.ReservationsByStatus,
		"registered_users":       d.RegisteredUsers,
		"trend":                  trend,
	})
}

// ListUsers handles GET /v1/admin/users, returning every registered
// customer ordered by email.  Admin accounts are not listed.
func (h *AdminStatsHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.ListNonAdmins(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, echo.Map{
			"id":         u.ID,
			"email":      u.Email,
			"full_name":  u.FullName,
			"is_active":  u.IsActive,
			"created_at": u.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// UserReservations handles GET /v1/admin/users/:id/reservations,
// returning the user's full reservation history, newest first.
func (h *AdminStatsHandler) UserReservations(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	history, err := h.Resvs.ListByUser(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load history failed"})
	}
	out := make([]echo.Map, 0, len(history))
	for _, d := range history {
		out = append(out, reservationJSON(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
