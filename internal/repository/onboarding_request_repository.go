package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/pg-rental-management/internal/model"
)

// OnboardingRequestRepo provides persistence for onboarding requests.
// Approval is not performed here: the handler runs the full tenant
// conversion transaction and calls MarkApprovedTx as its final write so
// the status flip commits or rolls back together with the tenant and
// room mutations.
type OnboardingRequestRepo struct {
	db *sql.DB
}

// NewOnboardingRequestRepo returns an OnboardingRequestRepo bound to the
// given database.
func NewOnboardingRequestRepo(db *sql.DB) *OnboardingRequestRepo {
	return &OnboardingRequestRepo{db: db}
}

// DB exposes the underlying pool for handler-level transactions.
func (r *OnboardingRequestRepo) DB() *sql.DB { return r.db }

const onboardingColumns = `id, tenant_user_id, visit_request_id, pg_id, room_id, owner_id,
	full_name, email, phone, monthly_rent_cents, image_url, id_document_url, emergency_contact,
	status, rejection_reason, created_at, approved_at, updated_at`

func scanOnboarding(row interface{ Scan(...interface{}) error }) (*model.OnboardingRequest, error) {
	var o model.OnboardingRequest
	var visitID sql.NullInt64
	var imageURL, idDocURL, emergency, reason sql.NullString
	var approvedAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.TenantUserID, &visitID, &o.PgID, &o.RoomID, &o.OwnerID,
		&o.FullName, &o.Email, &o.Phone, &o.MonthlyRentCents, &imageURL, &idDocURL, &emergency,
		&o.Status, &reason, &o.CreatedAt, &approvedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if visitID.Valid {
		vid := uint64(visitID.Int64)
		o.VisitRequestID = &vid
	}
	if imageURL.Valid {
		s := imageURL.String
		o.ImageURL = &s
	}
	if idDocURL.Valid {
		s := idDocURL.String
		o.IDDocumentURL = &s
	}
	if emergency.Valid {
		s := emergency.String
		o.EmergencyContact = &s
	}
	if reason.Valid {
		s := reason.String
		o.RejectionReason = &s
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		o.ApprovedAt = &t
	}
	return &o, nil
}

// HasActiveTx reports whether the tenant already has an active
// (pending/approved) onboarding request for the pg. Executed inside the
// creation transaction with the matching rows locked, mirroring the
// visit-request guard.
func (r *OnboardingRequestRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, tenantUserID, pgID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM onboarding_requests
	           WHERE tenant_user_id = ? AND pg_id = ? AND status IN ('pending','approved')
	           FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, q, tenantUserID, pgID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ActiveByTenantAndPg returns the tenant's active onboarding request for
// a pg, or sql.ErrNoRows when none exists. Clients use this to decide
// whether to offer the "request onboarding" action; the activeness rule
// is the same one HasActiveTx enforces at write time.
func (r *OnboardingRequestRepo) ActiveByTenantAndPg(ctx context.Context, tenantUserID, pgID uint64) (*model.OnboardingRequest, error) {
	q := "SELECT " + onboardingColumns + ` FROM onboarding_requests
	     WHERE tenant_user_id = ? AND pg_id = ? AND status IN ('pending','approved')
	     ORDER BY created_at DESC LIMIT 1`
	return scanOnboarding(r.db.QueryRowContext(ctx, q, tenantUserID, pgID))
}

// CreateTx inserts a new pending onboarding request within the provided
// transaction. Nothing in the schema can enforce one-active-request per
// applicant, so the locked HasActiveTx check in the same transaction is
// the duplicate guard; a 1062 from this insert still maps to
// ErrDuplicateActiveRequest.
func (r *OnboardingRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.OnboardingRequest) error {
	const q = `INSERT INTO onboarding_requests
	           (tenant_user_id, visit_request_id, pg_id, room_id, owner_id,
	            full_name, email, phone, monthly_rent_cents, image_url, id_document_url, emergency_contact, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`
	res, err := tx.ExecContext(ctx, q,
		o.TenantUserID, o.VisitRequestID, o.PgID, o.RoomID, o.OwnerID,
		o.FullName, o.Email, o.Phone, o.MonthlyRentCents, o.ImageURL, o.IDDocumentURL, o.EmergencyContact)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateActiveRequest
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.OnboardingPending

	sel := "SELECT " + onboardingColumns + " FROM onboarding_requests WHERE id = ?"
	got, err := scanOnboarding(tx.QueryRowContext(ctx, sel, o.ID))
	if err != nil {
		return err
	}
	*o = *got
	return nil
}

// GetForUpdateTx loads an onboarding request under a row lock so two
// owners (or a double-click) cannot decide the same request twice.
func (r *OnboardingRequestRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.OnboardingRequest, error) {
	q := "SELECT " + onboardingColumns + " FROM onboarding_requests WHERE id = ? FOR UPDATE"
	return scanOnboarding(tx.QueryRowContext(ctx, q, id))
}

// MarkApprovedTx flips the request to approved with the approval
// timestamp. Must be the final write of the tenant conversion
// transaction so the flip shares its atomicity.
func (r *OnboardingRequestRepo) MarkApprovedTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	const q = `UPDATE onboarding_requests
	           SET status = 'approved', approved_at = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, at.UTC().Format("2006-01-02 15:04:05"), id)
	return err
}

// MarkRejectedTx flips the request to rejected with the owner's reason.
func (r *OnboardingRequestRepo) MarkRejectedTx(ctx context.Context, tx *sql.Tx, id uint64, reason string) error {
	const q = `UPDATE onboarding_requests
	           SET status = 'rejected', rejection_reason = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, reason, id)
	return err
}

// OnboardingRequestDetail is an onboarding request joined with pg and
// room context for display to either actor.
type OnboardingRequestDetail struct {
	ID               uint64  `json:"id"`
	TenantUserID     uint64  `json:"tenant_user_id"`
	VisitRequestID   *uint64 `json:"visit_request_id,omitempty"`
	PgID             uint64  `json:"pg_id"`
	PgName           string  `json:"pg_name"`
	PgAddress        string  `json:"pg_address"`
	RoomID           uint64  `json:"room_id"`
	RoomNumber       string  `json:"room_number"`
	FullName         string  `json:"full_name"`
	MonthlyRentCents uint32  `json:"monthly_rent_cents"`
	Status           string  `json:"status"`
	RejectionReason  *string `json:"rejection_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
	ApprovedAt       *string `json:"approved_at,omitempty"`
}

const onboardingDetailSelect = `SELECT o.id, o.tenant_user_id, o.visit_request_id, o.pg_id, p.name, p.address,
	       o.room_id, rm.room_number, o.full_name, o.monthly_rent_cents, o.status, o.rejection_reason,
	       o.created_at, o.approved_at
	FROM onboarding_requests o
	JOIN pgs p ON p.id = o.pg_id
	JOIN rooms rm ON rm.id = o.room_id`

func collectOnboardingDetails(rows *sql.Rows) ([]OnboardingRequestDetail, error) {
	defer rows.Close()
	out := make([]OnboardingRequestDetail, 0)
	for rows.Next() {
		var d OnboardingRequestDetail
		var visitID sql.NullInt64
		var reason, approvedAt sql.NullString
		if err := rows.Scan(
			&d.ID, &d.TenantUserID, &visitID, &d.PgID, &d.PgName, &d.PgAddress,
			&d.RoomID, &d.RoomNumber, &d.FullName, &d.MonthlyRentCents, &d.Status, &reason,
			&d.CreatedAt, &approvedAt); err != nil {
			return nil, err
		}
		if visitID.Valid {
			vid := uint64(visitID.Int64)
			d.VisitRequestID = &vid
		}
		if reason.Valid {
			s := reason.String
			d.RejectionReason = &s
		}
		if approvedAt.Valid {
			s := approvedAt.String
			d.ApprovedAt = &s
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveForTenant returns the tenant's active onboarding requests
// joined with pg and room context, newest first.
func (r *OnboardingRequestRepo) ListActiveForTenant(ctx context.Context, tenantUserID uint64) ([]OnboardingRequestDetail, error) {
	q := onboardingDetailSelect + `
	WHERE o.tenant_user_id = ? AND o.status IN ('pending','approved')
	ORDER BY o.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, tenantUserID)
	if err != nil {
		return nil, err
	}
	return collectOnboardingDetails(rows)
}

// ListForOwner returns onboarding requests addressed to the owner,
// optionally scoped to a single pg and a single status, newest first.
// With an empty status it returns every request, rejected ones
// included, so the owner can review past decisions.
func (r *OnboardingRequestRepo) ListForOwner(ctx context.Context, ownerID uint64, pgID *uint64, status string) ([]OnboardingRequestDetail, error) {
	q := onboardingDetailSelect + `
	WHERE o.owner_id = ?`
	args := []interface{}{ownerID}
	if pgID != nil {
		q += " AND o.pg_id = ?"
		args = append(args, *pgID)
	}
	if status != "" {
		q += " AND o.status = ?"
		args = append(args, status)
	}
	q += " ORDER BY o.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectOnboardingDetails(rows)
}
