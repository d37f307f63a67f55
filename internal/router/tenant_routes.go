package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/config"
	"github.com/iliyamo/pg-rental-management/internal/handler"
	"github.com/iliyamo/pg-rental-management/internal/middleware"
)

// RegisterTenantRoutes mounts the applicant/tenant workflow surface.
// Applicants create requests too, so both roles pass the gate.
func RegisterTenantRoutes(e *echo.Echo, h *handler.TenantHandler, cfg config.Config) {
	g := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("TENANT", "APPLICANT"))

	g.POST("/visit-requests", h.CreateVisitRequest)
	g.PATCH("/visit-requests/:id/reschedule", h.RescheduleVisit)
	g.PATCH("/visit-requests/:id/accept-reschedule", h.AcceptReschedule)
	g.PATCH("/visit-requests/:id/complete", h.CompleteVisit)
	g.DELETE("/visit-requests/:id", h.CancelVisitRequest)

	g.POST("/onboarding-requests", h.CreateOnboardingRequest)
	g.GET("/my-requests", h.MyRequests)
	g.GET("/pgs/:id/onboarding-status", h.OnboardingStatus)
}
