// Package router registers the HTTP routes for the ticket service.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bigfranky/ticket-service/internal/config"
	"github.com/bigfranky/ticket-service/internal/handler"
	"github.com/bigfranky/ticket-service/internal/middleware"
)

// RegisterPublic registers the unauthenticated surface: the health
// check and the gate endpoints. The scan and lookup routes sit behind
// the Redis token bucket; the lookup additionally gets the short-TTL
// response cache because it is read-only.
func RegisterPublic(e *echo.Echo, s *handler.ScanHandler, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewLookupCache(config.LoadCacheConfig(), rdb)

	e.POST("/v1/scan", s.Scan, rl)
	e.GET("/v1/tickets/:uuid", s.Lookup, rl, cache)
}

// RegisterAdmin registers the staff surface under /v1/admin. Every
// route requires a valid HS256 bearer token with the MANAGER role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("MANAGER"))

	g.GET("/tickets", a.ListTickets)
	g.GET("/tickets/export.csv", a.ExportCSV)
	g.GET("/events", a.ListEvents)
	g.POST("/orders/:id/regenerate", a.Regenerate)
	g.POST("/orders/:id/complete", a.Complete)
	g.POST("/items/:item_id/units/:idx/toggle", a.Toggle)
	g.GET("/items/:item_id/units/:idx/download", a.Download)
}
