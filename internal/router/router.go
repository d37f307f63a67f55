// Package router wires handlers onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pg-rental-management/internal/config"
	"github.com/iliyamo/pg-rental-management/internal/handler"
	"github.com/iliyamo/pg-rental-management/internal/middleware"
)

// RegisterPublicRoutes mounts the health probe, auth endpoints and the
// unauthenticated browse surface. The browse endpoints go through the
// Redis response cache when one is configured.
func RegisterPublicRoutes(e *echo.Echo, auth *handler.AuthHandler, public *handler.PublicHandler, notifs *handler.NotificationHandler, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	a := e.Group("/v1/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.POST("/refresh", auth.Refresh)
	a.POST("/refresh-access", auth.RefreshAccess)
	a.POST("/logout", auth.Logout)

	e.GET("/v1/me", auth.Me, middleware.JWTAuth(cfg.JWTSecret))
	// Notifications are role-agnostic; owners and tenants both read
	// their own rows here.
	e.GET("/v1/notifications", notifs.List, middleware.JWTAuth(cfg.JWTSecret))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	b := e.Group("/v1", cache)
	b.GET("/pgs", public.ListPgs)
	b.GET("/pgs/:id", public.GetPg)
	b.GET("/pgs/:id/rooms", public.ListRooms)
}
