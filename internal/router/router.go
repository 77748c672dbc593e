package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-reservation/internal/config"     // cache and rate limit configuration
	"github.com/iliyamo/parking-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/parking-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// Handlers bundles every handler the API exposes so registration stays
// a single call from main.
type Handlers struct {
	Auth  *handler.AuthHandler
	Lots  *handler.AdminLotHandler
	Spots *handler.AdminSpotHandler
	Stats *handler.AdminStatsHandler
	Brows *handler.LotBrowseHandler
	Resvs *handler.ReservationHandler
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated lot browsing endpoints.
// Responses are served through the Redis cache middleware, so repeated
// guest searches do not hit MySQL within the cache TTL.
func RegisterPublic(e *echo.Echo, h *Handlers, rdb *redis.Client) {
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/lots", h.Brows.List, cacheMW)
	e.GET("/v1/lots/search", h.Brows.Search, cacheMW)
}

// RegisterAuth registers the authentication routes and the protected
// /v1 surface.  Unauthenticated operations live under /v1/auth, while
// protected endpoints live under /v1 and carry the JWT and role
// middleware.  Admin-only endpoints live under /v1/admin.
func RegisterAuth(e *echo.Echo, h *Handlers, jwtSecret string, rdb *redis.Client) {
	// Token issuing endpoints need no session but are rate limited so a
	// credential stuffing run exhausts its bucket quickly.
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	g := e.Group("/v1/auth", limitMW)
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	// /refresh rotates the refresh token; /refresh-access only issues a
	// new access token.
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/refresh-access", h.Auth.RefreshAccess)
	// Logout does not require JWT authentication: a refresh token in the
	// body terminates that session, a bearer token alone terminates all
	// of the user's sessions.
	g.POST("/logout", h.Auth.Logout)

	// Everything under /v1 requires a valid access token with a known
	// role.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(handler.RoleAdmin, handler.RoleCustomer))

	auth.GET("/me", h.Auth.Me)
	auth.PUT("/me", h.Auth.UpdateProfile)
	auth.PUT("/me/password", h.Auth.ChangePassword)
	auth.GET("/me/overview", h.Resvs.Overview)

	auth.POST("/reservations", h.Resvs.Book)
	auth.GET("/reservations", h.Resvs.MyReservations)
	auth.POST("/reservations/:id/check-in", h.Resvs.CheckIn)
	auth.POST("/reservations/:id/park-out", h.Resvs.ParkOut)
	auth.POST("/reservations/:id/cancel", h.Resvs.Cancel)
	auth.GET("/reservations/:id/estimate", h.Resvs.Estimate)

	// Admin surface: lot and spot management plus the dashboard.
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole(handler.RoleAdmin))
	admin.POST("/lots", h.Lots.CreateLot)
	admin.GET("/lots", h.Lots.ListLots)
	admin.GET("/lots/:id", h.Lots.GetLot)
	admin.PUT("/lots/:id", h.Lots.UpdateLot)
	admin.DELETE("/lots/:id", h.Lots.DeleteLot)
	admin.GET("/spots/:id", h.Spots.SpotDetail)
	admin.DELETE("/spots/:id", h.Spots.DeleteSpot)
	admin.GET("/dashboard", h.Stats.Dashboard)
	admin.GET("/users", h.Stats.ListUsers)
	admin.GET("/users/:id/reservations", h.Stats.UserReservations)
}
