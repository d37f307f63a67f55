package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/model"
	"github.com/iliyamo/pg-rental-management/internal/queue"
	"github.com/iliyamo/pg-rental-management/internal/repository"
	queuepub "github.com/iliyamo/pg-rental-management/internal/service"
)

type roomReq struct {
	RoomNumber       string `json:"room_number"`
	Sharing          uint32 `json:"sharing"`
	MonthlyRentCents uint32 `json:"monthly_rent_cents"`
}

type roomResp struct {
	ID               uint64 `json:"id"`
	PgID             uint64 `json:"pg_id"`
	RoomNumber       string `json:"room_number"`
	Sharing          uint32 `json:"sharing"`
	MonthlyRentCents uint32 `json:"monthly_rent_cents"`
	Status           string `json:"status"`
}

func toRoomResp(r *repository.Room) roomResp {
	return roomResp{
		ID:               r.ID,
		PgID:             r.PgID,
		RoomNumber:       r.RoomNumber,
		Sharing:          r.Sharing,
		MonthlyRentCents: r.MonthlyRentCents,
		Status:           r.Status,
	}
}

// CreateRoom handles POST /v1/pgs/:id/rooms. Rooms start vacant; the
// room number must be unique within the pg.
func (h *OwnerHandler) CreateRoom(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pg id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.RoomNumber == "" || req.Sharing < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_number and sharing >= 1 required"})
	}

	ctx := c.Request().Context()
	pg, err := h.Pgs.GetByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, repository.ErrPgNotFound) || errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if pg.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your pg"})
	}

	rm := &repository.Room{
		PgID:             pgID,
		OwnerID:          ownerID,
		RoomNumber:       req.RoomNumber,
		Sharing:          req.Sharing,
		MonthlyRentCents: req.MonthlyRentCents,
	}
	if err := h.Rooms.Create(ctx, rm); err != nil {
		if errors.Is(err, repository.ErrRoomNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, toRoomResp(rm))
}

// UpdateRoom handles PUT /v1/rooms/:id. Sharing cannot shrink below the
// current occupant count.
func (h *OwnerHandler) UpdateRoom(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Sharing < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sharing >= 1 required"})
	}
	err = h.Rooms.Update(c.Request().Context(), id, ownerID, req.Sharing, req.MonthlyRentCents)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your room"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "sharing below current occupancy"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// DeleteRoom handles DELETE /v1/rooms/:id. Occupied rooms cannot be
// deleted.
func (h *OwnerHandler) DeleteRoom(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	err = h.Rooms.DeleteByIDAndOwner(c.Request().Context(), id, ownerID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your room"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is occupied"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// ListTenants handles GET /v1/tenants with an optional ?pg_id= filter.
func (h *OwnerHandler) ListTenants(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tenants, err := h.Tenants.ListByOwner(c.Request().Context(), ownerID, queryPgID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": tenants})
}

// ReleaseTenant handles POST /v1/rooms/:id/release/:tenantId. It vacates
// the tenant from the room, deactivates the tenant record and reverts
// the person's role to applicant, all in one transaction. A
// tenant.released event is published after commit.
func (h *OwnerHandler) ReleaseTenant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	tenantID, ok := pathID(c, "tenantId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	ctx := c.Request().Context()
	tenant, err := h.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if tenant.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your tenant"})
	}
	if tenant.Status != model.TenantActive || tenant.RoomID == nil || *tenant.RoomID != roomID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant does not occupy this room"})
	}

	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	status, err := h.Rooms.ReleaseTenantTx(ctx, tx, roomID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	if err := h.Tenants.ReleaseTx(ctx, tx, tenantID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}

	u, err := h.Users.GetByIDTx(ctx, tx, tenant.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	if next := model.RoleOnRemoved(u.Role); next != u.Role {
		if err := h.Users.UpdateRoleTx(ctx, tx, u.ID, next); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	queuepub.PublishAsync(queue.WorkflowEvent{
		Type:        queue.EventTenantReleased,
		UserID:      tenant.UserID,
		ReferenceID: tenantID,
		PgID:        tenant.PgID,
		Title:       "Tenancy ended",
		Message:     "You have been released from your room. Your account is back to applicant status.",
		OccurredAt:  nowRFC3339(),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "room_status": status})
}
