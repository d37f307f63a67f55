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
)

// TenantHandler serves applicants and tenants driving the visit and
// onboarding workflows. JWTAuth plus RequireRole("TENANT","APPLICANT")
// run before every method.
type TenantHandler struct {
	Pgs         *repository.PgRepo
	Rooms       *repository.RoomRepo
	Visits      *repository.VisitRequestRepo
	Onboardings *repository.OnboardingRequestRepo
}

func NewTenantHandler(pgs *repository.PgRepo, rooms *repository.RoomRepo, visits *repository.VisitRequestRepo, onboardings *repository.OnboardingRequestRepo) *TenantHandler {
	if pgs == nil || rooms == nil || visits == nil || onboardings == nil {
		panic("nil repository passed to NewTenantHandler")
	}
	return &TenantHandler{Pgs: pgs, Rooms: rooms, Visits: visits, Onboardings: onboardings}
}

type createVisitReq struct {
	PgID   uint64  `json:"pg_id"`
	RoomID *uint64 `json:"room_id"`
	Date   string  `json:"date"`
	Time   string  `json:"time"`
	Notes  string  `json:"notes"`
}

// CreateVisitRequest handles POST /v1/visit-requests. The requested date
// must not be in the past, and one active request per (tenant, pg) is
// enforced inside the transaction.
func (h *TenantHandler) CreateVisitRequest(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createVisitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.PgID == 0 || req.Time == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pg_id, date and time required"})
	}
	d, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}
	if today := time.Now().UTC().Truncate(24 * time.Hour); d.Before(today) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must not be in the past"})
	}

	ctx := c.Request().Context()
	pg, err := h.Pgs.GetByID(ctx, req.PgID)
	if err != nil {
		if errors.Is(err, repository.ErrPgNotFound) || errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if req.RoomID != nil {
		rm, err := h.Rooms.GetByID(ctx, *req.RoomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if rm.PgID != req.PgID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "room does not belong to the pg"})
		}
	}

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

	active, err := h.Visits.HasActiveTx(ctx, tx, userID, req.PgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "active visit request already exists for this pg"})
	}

	v := &model.VisitRequest{
		TenantUserID:  userID,
		PgID:          req.PgID,
		OwnerID:       pg.OwnerID,
		RoomID:        req.RoomID,
		RequestedDate: req.Date,
		RequestedTime: req.Time,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if err := h.Visits.CreateTx(ctx, tx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveRequest) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "active visit request already exists for this pg"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"id":             v.ID,
		"status":         v.Status,
		"requested_date": v.RequestedDate,
		"requested_time": v.RequestedTime,
	})
}

// AcceptReschedule handles PATCH /v1/visit-requests/:id/accept-reschedule.
// The proposed slot becomes the confirmed slot and the request returns
// to approved.
func (h *TenantHandler) AcceptReschedule(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
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
	if v.TenantUserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.VisitCanAcceptReschedule(v.Status, v.RescheduledBy) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no owner-proposed slot to accept"})
	}

	if err := h.Visits.MarkRescheduleAcceptedTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.VisitApproved})
}

// RescheduleVisit handles PATCH /v1/visit-requests/:id/reschedule. The
// tenant proposes a replacement slot for a pending or approved visit;
// the request moves to rescheduled and waits for the owner to approve
// the proposal.
func (h *TenantHandler) RescheduleVisit(c echo.Context) error {
	userID, err := getUserID(c)
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
	d, err := time.Parse("2006-01-02", req.Date)
	if err != nil || req.Time == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date (YYYY-MM-DD) and time required"})
	}
	if today := time.Now().UTC().Truncate(24 * time.Hour); d.Before(today) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must not be in the past"})
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
	if v.TenantUserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.VisitCanReschedule(v.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request cannot be rescheduled"})
	}

	if err := h.Visits.MarkRescheduledTx(ctx, tx, id, req.Date, req.Time, model.RescheduledByTenant); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reschedule failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	queuepub.PublishAsync(queue.WorkflowEvent{
		Type:        queue.EventVisitRescheduled,
		UserID:      v.OwnerID,
		ReferenceID: id,
		PgID:        v.PgID,
		Title:       "Visit reschedule requested",
		Message:     "Your visitor proposed " + req.Date + " " + req.Time + " instead. Approve the request to confirm the new slot.",
		OccurredAt:  nowRFC3339(),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.VisitRescheduled})
}

// CompleteVisit handles PATCH /v1/visit-requests/:id/complete. Only the
// requesting tenant may complete, only from approved, and only once the
// confirmed date has arrived; completing ahead of schedule is refused.
func (h *TenantHandler) CompleteVisit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
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
	if v.TenantUserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.VisitCanComplete(v.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only approved visits can be completed"})
	}
	visitDate := v.RequestedDate
	if v.ConfirmedDate != nil {
		visitDate = *v.ConfirmedDate
	}
	if !model.VisitDatePassed(visitDate, time.Now()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "visit date has not arrived yet"})
	}

	if err := h.Visits.MarkCompletedTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": model.VisitCompleted})
}

// CancelVisitRequest handles DELETE /v1/visit-requests/:id. The row is
// kept with status cancelled so history survives; clients get a bare
// success flag.
func (h *TenantHandler) CancelVisitRequest(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
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
	if v.TenantUserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
	}
	if !model.VisitCanCancel(v.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request is already finished"})
	}

	if err := h.Visits.MarkCancelledTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type createOnboardingReq struct {
	PgID             uint64  `json:"pg_id"`
	RoomID           uint64  `json:"room_id"`
	VisitRequestID   *uint64 `json:"visit_request_id"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	MonthlyRentCents uint32  `json:"monthly_rent_cents"`
	ImageURL         *string `json:"image_url"`
	IDDocumentURL    *string `json:"id_document_url"`
	EmergencyContact *string `json:"emergency_contact"`
}

// CreateOnboardingRequest handles POST /v1/onboarding-requests. The room
// is mandatory and must belong to the pg; a full room is refused up
// front even though the binding capacity check happens at approval.
func (h *TenantHandler) CreateOnboardingRequest(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOnboardingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.PgID == 0 || req.RoomID == 0 || req.FullName == "" || req.Email == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pg_id, room_id, full_name, email and phone required"})
	}

	ctx := c.Request().Context()
	pg, err := h.Pgs.GetByID(ctx, req.PgID)
	if err != nil {
		if errors.Is(err, repository.ErrPgNotFound) || errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rm, err := h.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if rm.PgID != req.PgID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room does not belong to the pg"})
	}
	if rm.Status == model.RoomFullyOccupied {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is full"})
	}
	rent := req.MonthlyRentCents
	if rent == 0 {
		rent = rm.MonthlyRentCents
	}

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

	active, err := h.Onboardings.HasActiveTx(ctx, tx, userID, req.PgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "active onboarding request already exists for this pg"})
	}

	o := &model.OnboardingRequest{
		TenantUserID:     userID,
		VisitRequestID:   req.VisitRequestID,
		PgID:             req.PgID,
		RoomID:           req.RoomID,
		OwnerID:          pg.OwnerID,
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            req.Phone,
		MonthlyRentCents: rent,
		ImageURL:         req.ImageURL,
		IDDocumentURL:    req.IDDocumentURL,
		EmergencyContact: req.EmergencyContact,
	}
	if err := h.Onboardings.CreateTx(ctx, tx, o); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveRequest) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "active onboarding request already exists for this pg"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{"id": o.ID, "status": o.Status})
}

// MyRequests handles GET /v1/my-requests: the caller's active visit and
// onboarding requests with pg/room context. ?order=visit_date sorts
// visits by their effective date.
func (h *TenantHandler) MyRequests(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	visits, err := h.Visits.ListActiveForTenant(ctx, userID, c.QueryParam("order"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	onboardings, err := h.Onboardings.ListActiveForTenant(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"visit_requests":      visits,
		"onboarding_requests": onboardings,
	})
}

// OnboardingStatus handles GET /v1/pgs/:id/onboarding-status. Clients
// use it to decide whether to show the "request onboarding" action.
func (h *TenantHandler) OnboardingStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pg id"})
	}
	o, err := h.Onboardings.ActiveByTenantAndPg(c.Request().Context(), userID, pgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusOK, echo.Map{"has_active": false})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"has_active": true,
		"request":    echo.Map{"id": o.ID, "status": o.Status, "room_id": o.RoomID, "created_at": o.CreatedAt},
	})
}
