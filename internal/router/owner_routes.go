package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/config"
	"github.com/iliyamo/pg-rental-management/internal/handler"
	"github.com/iliyamo/pg-rental-management/internal/middleware"
)

// RegisterOwnerRoutes mounts everything behind RequireRole("OWNER"):
// pg and room management, the request decision endpoints and the
// owner-side listings.
func RegisterOwnerRoutes(e *echo.Echo, h *handler.OwnerHandler, cfg config.Config) {
	g := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("OWNER", "ADMIN"))

	g.POST("/pgs", h.CreatePg)
	g.GET("/owner/pgs", h.ListPgs)
	g.PUT("/pgs/:id", h.UpdatePg)
	g.DELETE("/pgs/:id", h.DeletePg)

	g.POST("/pgs/:id/rooms", h.CreateRoom)
	g.PUT("/rooms/:id", h.UpdateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)
	g.POST("/rooms/:id/release/:tenantId", h.ReleaseTenant)

	g.GET("/tenants", h.ListTenants)
	g.GET("/requests", h.ListRequests)
	g.POST("/visit-requests/:id/approve", h.ApproveVisit)
	g.POST("/visit-requests/:id/reschedule", h.RescheduleVisit)
	g.POST("/onboarding-requests/:id/approve", h.ApproveOnboarding)
	g.POST("/onboarding-requests/:id/reject", h.RejectOnboarding)
}
