package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/model"
	"github.com/iliyamo/pg-rental-management/internal/queue"
	"github.com/iliyamo/pg-rental-management/internal/repository"
	queuepub "github.com/iliyamo/pg-rental-management/internal/service"
	"github.com/iliyamo/pg-rental-management/internal/utils"
)

// ListRequests handles GET /v1/requests: both workflows in one payload,
// optionally filtered by ?pg_id= and ?status= and ordered by
// ?order=visit_date. Without a status filter the lists include decided
// and closed requests, unlike the tenant views which only show active
// ones.
func (h *OwnerHandler) ListRequests(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := strings.TrimSpace(c.QueryParam("status"))
	switch status {
	case "", model.VisitPending, model.VisitApproved, model.VisitRescheduled,
		model.VisitCompleted, model.VisitCancelled, model.OnboardingRejected:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	ctx := c.Request().Context()
	pgID := queryPgID(c)
	visits, err := h.Visits.ListForOwner(ctx, ownerID, pgID, status, c.QueryParam("order"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	onboardings, err := h.Onboardings.ListForOwner(ctx, ownerID, pgID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"visit_requests":      visits,
		"onboarding_requests": onboardings,
	})
}

type approveVisitReq struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	OwnerNotes string `json:"owner_notes"`
}

// ApproveVisit handles POST /v1/visit-requests/:id/approve. Only pending
// requests can be approved; the confirmed slot defaults to the requested
// one unless the owner supplies an override.
func (h *OwnerHandler) ApproveVisit(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req approveVisitReq
	_ = c.Bind(&req)

	ctx := c.Request().Context()
	tx, err := h.Visits.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	v, err := h.Visits.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if v.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.VisitCanApprove(v.Status, v.RescheduledBy) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request is not awaiting approval"})
	}

	// The slot being agreed to: the tenant's proposal when approving a
	// reschedule, otherwise the originally requested one. An explicit
	// slot in the body overrides either.
	defaultDate, defaultTime := v.RequestedDate, v.RequestedTime
	if v.Status == model.VisitRescheduled && v.RescheduledDate != nil && v.RescheduledTime != nil {
		defaultDate, defaultTime = *v.RescheduledDate, *v.RescheduledTime
	}
	confirmedDate := strings.TrimSpace(req.Date)
	confirmedTime := strings.TrimSpace(req.Time)
	if confirmedDate == "" {
		confirmedDate = defaultDate
	}
	if confirmedTime == "" {
		confirmedTime = defaultTime
	}
	if _, err := time.Parse("2006-01-02", confirmedDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}

	if err := h.Visits.MarkApprovedTx(ctx, tx, id, confirmedDate, confirmedTime, strings.TrimSpace(req.OwnerNotes)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	pgName := h.pgNameQuiet(c, v.PgID)
	queuepub.PublishAsync(queue.WorkflowEvent{
		Type:        queue.EventVisitApproved,
		UserID:      v.TenantUserID,
		ReferenceID: id,
		PgID:        v.PgID,
		PgName:      pgName,
		Title:       "Visit approved",
		Message:     "Your visit to " + pgName + " is confirmed for " + confirmedDate + " " + confirmedTime + ".",
		OccurredAt:  nowRFC3339(),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"status":         model.VisitApproved,
		"confirmed_date": confirmedDate,
		"confirmed_time": confirmedTime,
	})
}

type rescheduleReq struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// RescheduleVisit handles POST /v1/visit-requests/:id/reschedule. The
// owner proposes a new slot; the request parks in `rescheduled` until
// the tenant accepts or cancels.
func (h *OwnerHandler) RescheduleVisit(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if _, err := time.Parse("2006-01-02", req.Date); err != nil || req.Time == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date (YYYY-MM-DD) and time required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Visits.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	v, err := h.Visits.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if v.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.VisitCanReschedule(v.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request cannot be rescheduled"})
	}

	if err := h.Visits.MarkRescheduledTx(ctx, tx, id, req.Date, req.Time, model.RescheduledByOwner); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reschedule failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	pgName := h.pgNameQuiet(c, v.PgID)
	queuepub.PublishAsync(queue.WorkflowEvent{
		Type:        queue.EventVisitRescheduled,
		UserID:      v.TenantUserID,
		ReferenceID: id,
		PgID:        v.PgID,
		PgName:      pgName,
		Title:       "New visit slot proposed",
		Message:     "The owner of " + pgName + " proposed " + req.Date + " " + req.Time + " for your visit. Accept it or cancel the request.",
		OccurredAt:  nowRFC3339(),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.VisitRescheduled})
}

// ApproveOnboarding handles POST /v1/onboarding-requests/:id/approve.
// The whole tenant conversion runs in one transaction: the room row is
// locked, capacity re-checked, the tenant record upserted and assigned,
// the user's role flipped to TENANT and the request marked approved.
// Welcome mail and the in-app notification fire only after commit.
func (h *OwnerHandler) ApproveOnboarding(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Onboardings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Onboardings.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "onboarding request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.OnboardingCanDecide(o.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request already decided"})
	}

	// Lock the room up front; also validates it still belongs to the pg.
	rm, err := h.Rooms.GetForUpdateTx(ctx, tx, o.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room no longer exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if rm.PgID != o.PgID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room does not belong to the pg"})
	}

	// Upsert the tenant record: one row per (owner, user), moved on
	// re-onboarding instead of duplicated.
	existing := true
	tenant, err := h.Tenants.GetByOwnerAndUserTx(ctx, tx, ownerID, o.TenantUserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		existing = false
	}
	if existing {
		if tenant.RoomID != nil && *tenant.RoomID != o.RoomID {
			if _, err := h.Rooms.ReleaseTenantTx(ctx, tx, *tenant.RoomID, tenant.ID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
			}
		}
		if err := h.Tenants.UpdatePlacementTx(ctx, tx, tenant.ID, o.PgID, o.RoomID, o.MonthlyRentCents); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update tenant failed"})
		}
	} else {
		tenant = &repository.TenantRecord{
			OwnerID:          ownerID,
			PgID:             o.PgID,
			RoomID:           &o.RoomID,
			UserID:           o.TenantUserID,
			Name:             o.FullName,
			Email:            o.Email,
			Phone:            o.Phone,
			MonthlyRentCents: o.MonthlyRentCents,
		}
		if err := h.Tenants.CreateTx(ctx, tx, tenant); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tenant failed"})
		}
	}

	if _, err := h.Rooms.AssignTenantTx(ctx, tx, o.RoomID, tenant.ID); err != nil {
		if errors.Is(err, repository.ErrRoomFull) {
			// Request stays pending; the owner should pick another room.
			return c.JSON(http.StatusConflict, echo.Map{"error": "room is full"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}

	u, err := h.Users.GetByIDTx(ctx, tx, o.TenantUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if next := model.RoleOnAssigned(u.Role); next != u.Role {
		if err := h.Users.UpdateRoleTx(ctx, tx, u.ID, next); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role update failed"})
		}
	}

	// Credential-less accounts get a temporary password so the welcome
	// mail is actionable.
	tempPassword := ""
	if u.PasswordHash == "" {
		tempPassword, err = utils.TempPassword()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provision failed"})
		}
		hash, err := utils.HashPassword(tempPassword, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provision failed"})
		}
		if err := h.Users.SetPasswordHashTx(ctx, tx, u.ID, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provision failed"})
		}
	}

	// Marking the request approved is the final write of the conversion.
	approvedAt := time.Now().UTC()
	if err := h.Onboardings.MarkApprovedTx(ctx, tx, id, approvedAt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	pgName := h.pgNameQuiet(c, o.PgID)
	if h.Mail != nil {
		// The temp password goes straight to the mailer; it is never
		// serialized into a queue message.
		mail, name, room, pw := h.Mail, o.FullName, rm.RoomNumber, tempPassword
		to := o.Email
		switch {
		case pw != "":
			go mail.SendTenantOnboardingWithPassword(to, name, pgName, room, pw)
		case existing:
			go mail.SendTenantOnboardingExistingUser(to, name, pgName, room)
		default:
			go mail.SendTenantWelcome(to, name, pgName, room)
		}
	}
	queuepub.PublishAsync(queue.WorkflowEvent{
		Type:        queue.EventOnboardingApproved,
		UserID:      o.TenantUserID,
		ReferenceID: id,
		PgID:        o.PgID,
		PgName:      pgName,
		RoomNumber:  rm.RoomNumber,
		Title:       "Onboarding approved",
		Message:     "Welcome to " + pgName + ". You are now a tenant of room " + rm.RoomNumber + ".",
		OccurredAt:  approvedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"status":    model.OnboardingApproved,
		"tenant_id": tenant.ID,
	})
}

type rejectReq struct {
	Reason string `json:"reason"`
}

// RejectOnboarding handles POST /v1/onboarding-requests/:id/reject. A
// non-empty reason is required and is echoed back to the tenant.
func (h *OwnerHandler) RejectOnboarding(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Onboardings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Onboardings.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "onboarding request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.OnboardingCanDecide(o.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request already decided"})
	}

	if err := h.Onboardings.MarkRejectedTx(ctx, tx, id, req.Reason); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reject failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	pgName := h.pgNameQuiet(c, o.PgID)
	queuepub.PublishAsync(queue.WorkflowEvent{
		Type:        queue.EventOnboardingRejected,
		UserID:      o.TenantUserID,
		ReferenceID: id,
		PgID:        o.PgID,
		PgName:      pgName,
		Title:       "Onboarding rejected",
		Message:     "Your onboarding request for " + pgName + " was rejected: " + req.Reason,
		OccurredAt:  nowRFC3339(),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.OnboardingRejected})
}

// pgNameQuiet resolves a pg name for notification copy. Failures fall
// back to a generic label; notifications must never fail the request.
func (h *OwnerHandler) pgNameQuiet(c echo.Context, pgID uint64) string {
	if p, err := h.Pgs.GetByID(c.Request().Context(), pgID); err == nil {
		return p.Name
	}
	return "the property"
}
