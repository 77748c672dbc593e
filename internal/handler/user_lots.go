package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

// LotBrowseHandler serves the public lot browsing surface: listing and
// searching active lots with their live availability counts.  These
// routes sit behind the response cache middleware, so availability
// figures may lag by the cache TTL.
type LotBrowseHandler struct {
	Lots  *repository.LotRepo
	Spots *repository.SpotRepo
}

// NewLotBrowseHandler constructs a LotBrowseHandler and panics if any
// dependency is nil.
func NewLotBrowseHandler(lots *repository.LotRepo, spots *repository.SpotRepo) *LotBrowseHandler {
	if lots == nil || spots == nil {
		panic("nil repository passed to NewLotBrowseHandler")
	}
	return &LotBrowseHandler{Lots: lots, Spots: spots}
}

// browse is shared by List and Search: only active lots are shown, each
// with its count of Available spots.
func (h *LotBrowseHandler) browse(c echo.Context, term string) error {
	ctx := c.Request().Context()
	lots, err := h.Lots.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list lots failed"})
	}
	available, err := h.Spots.CountAvailableByLot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count spots failed"})
	}
	out := make([]echo.Map, 0, len(lots))
	for i := range lots {
		if !lots[i].IsActive {
			continue
		}
		m := lotJSON(&lots[i])
		m["available_spots"] = available[lots[i].ID]
		out = append(out, m)
	}
	return c.JSON(http.StatusOK, echo.Map{"lots": out})
}

// List handles GET /lots.
func (h *LotBrowseHandler) List(c echo.Context) error {
	return h.browse(c, "")
}

// Search handles GET /lots/search?q=term, matching name, address and
// pin code case-insensitively.  An empty term lists everything.
func (h *LotBrowseHandler) Search(c echo.Context) error {
	return h.browse(c, c.QueryParam("q"))
}
