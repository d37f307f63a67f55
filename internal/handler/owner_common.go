// Package handler defines HTTP handlers.
package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/config"
	"github.com/iliyamo/pg-rental-management/internal/mailer"
	"github.com/iliyamo/pg-rental-management/internal/repository"
)

// OwnerHandler bundles everything an owner needs to manage pgs, rooms
// and the request workflows. All methods assume JWTAuth and
// RequireRole("OWNER") ran earlier in the chain.
type OwnerHandler struct {
	Cfg         config.Config
	Pgs         *repository.PgRepo
	Rooms       *repository.RoomRepo
	Visits      *repository.VisitRequestRepo
	Onboardings *repository.OnboardingRequestRepo
	Tenants     *repository.TenantRepo
	Users       *repository.UserRepo
	Notifs      *repository.NotificationRepo
	Mail        *mailer.Mailer
}

// NewOwnerHandler constructs an OwnerHandler and panics when a required
// dependency is missing; wiring bugs should fail at startup, not on the
// first request.
func NewOwnerHandler(cfg config.Config, pgs *repository.PgRepo, rooms *repository.RoomRepo, visits *repository.VisitRequestRepo, onboardings *repository.OnboardingRequestRepo, tenants *repository.TenantRepo, users *repository.UserRepo, notifs *repository.NotificationRepo, mail *mailer.Mailer) *OwnerHandler {
	if pgs == nil || rooms == nil || visits == nil || onboardings == nil || tenants == nil || users == nil || notifs == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{
		Cfg:         cfg,
		Pgs:         pgs,
		Rooms:       rooms,
		Visits:      visits,
		Onboardings: onboardings,
		Tenants:     tenants,
		Users:       users,
		Notifs:      notifs,
		Mail:        mail,
	}
}

// getUserID extracts the user_id set by JWTAuth and converts it to
// uint64. MapClaims decode numbers as float64, so that case carries the
// traffic; the rest cover tests and future claim changes.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// nowRFC3339 stamps outgoing workflow events.
func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// queryPgID parses the optional ?pg_id= filter used by owner listings.
func queryPgID(c echo.Context) *uint64 {
	if s := c.QueryParam("pg_id"); s != "" {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}
