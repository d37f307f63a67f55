package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/pg-rental-management/internal/model"
)

// VisitRequestRepo provides persistence for visit requests. State
// transitions are guarded in the handlers with the model transition
// functions; the repository only performs the writes and enforces the
// single-active-request rule at insert time. All timestamps are UTC.
type VisitRequestRepo struct {
	db *sql.DB
}

// NewVisitRequestRepo returns a VisitRequestRepo bound to the given database.
func NewVisitRequestRepo(db *sql.DB) *VisitRequestRepo { return &VisitRequestRepo{db: db} }

// DB exposes the underlying pool for handler-level transactions.
func (r *VisitRequestRepo) DB() *sql.DB { return r.db }

const visitColumns = `id, tenant_user_id, pg_id, owner_id, room_id, requested_date, requested_time,
	status, rescheduled_date, rescheduled_time, rescheduled_by, confirmed_date, confirmed_time,
	notes, owner_notes, created_at, updated_at`

func scanVisit(row interface{ Scan(...interface{}) error }) (*model.VisitRequest, error) {
	var v model.VisitRequest
	var roomID sql.NullInt64
	var resDate, resTime, resBy, confDate, confTime sql.NullString
	err := row.Scan(
		&v.ID, &v.TenantUserID, &v.PgID, &v.OwnerID, &roomID, &v.RequestedDate, &v.RequestedTime,
		&v.Status, &resDate, &resTime, &resBy, &confDate, &confTime,
		&v.Notes, &v.OwnerNotes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		rid := uint64(roomID.Int64)
		v.RoomID = &rid
	}
	if resDate.Valid {
		s := resDate.String
		v.RescheduledDate = &s
	}
	if resTime.Valid {
		s := resTime.String
		v.RescheduledTime = &s
	}
	if resBy.Valid {
		s := resBy.String
		v.RescheduledBy = &s
	}
	if confDate.Valid {
		s := confDate.String
		v.ConfirmedDate = &s
	}
	if confTime.Valid {
		s := confTime.String
		v.ConfirmedTime = &s
	}
	return &v, nil
}

// HasActiveTx reports whether the tenant already has an active
// (pending/approved/rescheduled) visit request for the pg. Executed
// inside the creation transaction; the matching rows are locked so a
// concurrent creation for the same pair blocks until this one commits.
func (r *VisitRequestRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, tenantUserID, pgID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM visit_requests
	           WHERE tenant_user_id = ? AND pg_id = ? AND status IN ('pending','approved','rescheduled')
	           FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, q, tenantUserID, pgID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a new pending visit request within the provided
// transaction and populates the generated ID and timestamps. MySQL
// cannot express a unique key over only the active statuses, so the
// locked HasActiveTx check in the same transaction is the duplicate
// guard; a 1062 from this insert is still mapped to
// ErrDuplicateActiveRequest in case the schema grows such a key.
func (r *VisitRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.VisitRequest) error {
	const q = `INSERT INTO visit_requests
	           (tenant_user_id, pg_id, owner_id, room_id, requested_date, requested_time, status, notes)
	           VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`
	res, err := tx.ExecContext(ctx, q, v.TenantUserID, v.PgID, v.OwnerID, v.RoomID, v.RequestedDate, v.RequestedTime, v.Notes)
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
	v.ID = uint64(id)
	v.Status = model.VisitPending

	sel := "SELECT " + visitColumns + " FROM visit_requests WHERE id = ?"
	got, err := scanVisit(tx.QueryRowContext(ctx, sel, v.ID))
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

// GetForUpdateTx loads a visit request under a row lock so a state
// transition reads and writes the status atomically.
func (r *VisitRequestRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.VisitRequest, error) {
	q := "SELECT " + visitColumns + " FROM visit_requests WHERE id = ? FOR UPDATE"
	return scanVisit(tx.QueryRowContext(ctx, q, id))
}

// MarkApprovedTx transitions the request to approved and records the
// agreed slot. The caller validates the source state first.
func (r *VisitRequestRepo) MarkApprovedTx(ctx context.Context, tx *sql.Tx, id uint64, confirmedDate, confirmedTime, ownerNotes string) error {
	const q = `UPDATE visit_requests
	           SET status = 'approved', confirmed_date = ?, confirmed_time = ?, owner_notes = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, confirmedDate, confirmedTime, ownerNotes, id)
	return err
}

// MarkRescheduledTx records a proposed replacement slot. The confirmed
// slot is left untouched until the tenant accepts.
func (r *VisitRequestRepo) MarkRescheduledTx(ctx context.Context, tx *sql.Tx, id uint64, newDate, newTime, by string) error {
	const q = `UPDATE visit_requests
	           SET status = 'rescheduled', rescheduled_date = ?, rescheduled_time = ?, rescheduled_by = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, newDate, newTime, by, id)
	return err
}

// MarkRescheduleAcceptedTx copies the proposed slot into the confirmed
// slot and returns the request to approved.
func (r *VisitRequestRepo) MarkRescheduleAcceptedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE visit_requests
	           SET status = 'approved', confirmed_date = rescheduled_date, confirmed_time = rescheduled_time, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// MarkCompletedTx transitions the request to its completed terminal state.
func (r *VisitRequestRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE visit_requests SET status = 'completed', updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// MarkCancelledTx transitions the request to cancelled. The row is
// retained; the read model filters on active statuses so cancelled
// requests stop appearing as live.
func (r *VisitRequestRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE visit_requests SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// VisitRequestDetail is a visit request joined with pg and room context
// for display to either actor.
type VisitRequestDetail struct {
	ID              uint64  `json:"id"`
	TenantUserID    uint64  `json:"tenant_user_id"`
	PgID            uint64  `json:"pg_id"`
	PgName          string  `json:"pg_name"`
	PgAddress       string  `json:"pg_address"`
	RoomID          *uint64 `json:"room_id,omitempty"`
	RoomNumber      *string `json:"room_number,omitempty"`
	RequestedDate   string  `json:"requested_date"`
	RequestedTime   string  `json:"requested_time"`
	Status          string  `json:"status"`
	RescheduledDate *string `json:"rescheduled_date,omitempty"`
	RescheduledTime *string `json:"rescheduled_time,omitempty"`
	RescheduledBy   *string `json:"rescheduled_by,omitempty"`
	ConfirmedDate   *string `json:"confirmed_date,omitempty"`
	ConfirmedTime   *string `json:"confirmed_time,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	OwnerNotes      string  `json:"owner_notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// visitOrder maps the caller-selectable sort to a fixed ORDER BY clause.
// Anything unrecognized falls back to newest first.
func visitOrder(order string) string {
	if order == "visit_date" {
		return "ORDER BY COALESCE(v.confirmed_date, v.requested_date), v.requested_time"
	}
	return "ORDER BY v.created_at DESC"
}

const visitDetailSelect = `SELECT v.id, v.tenant_user_id, v.pg_id, p.name, p.address, v.room_id, rm.room_number,
	       v.requested_date, v.requested_time, v.status,
	       v.rescheduled_date, v.rescheduled_time, v.rescheduled_by,
	       v.confirmed_date, v.confirmed_time, v.notes, v.owner_notes, v.created_at
	FROM visit_requests v
	JOIN pgs p ON p.id = v.pg_id
	LEFT JOIN rooms rm ON rm.id = v.room_id`

func collectVisitDetails(rows *sql.Rows) ([]VisitRequestDetail, error) {
	defer rows.Close()
	out := make([]VisitRequestDetail, 0)
	for rows.Next() {
		var d VisitRequestDetail
		var roomID sql.NullInt64
		var roomNumber, resDate, resTime, resBy, confDate, confTime sql.NullString
		if err := rows.Scan(
			&d.ID, &d.TenantUserID, &d.PgID, &d.PgName, &d.PgAddress, &roomID, &roomNumber,
			&d.RequestedDate, &d.RequestedTime, &d.Status,
			&resDate, &resTime, &resBy, &confDate, &confTime,
			&d.Notes, &d.OwnerNotes, &d.CreatedAt); err != nil {
			return nil, err
		}
		if roomID.Valid {
			rid := uint64(roomID.Int64)
			d.RoomID = &rid
		}
		if roomNumber.Valid {
			s := roomNumber.String
			d.RoomNumber = &s
		}
		if resDate.Valid {
			s := resDate.String
			d.RescheduledDate = &s
		}
		if resTime.Valid {
			s := resTime.String
			d.RescheduledTime = &s
		}
		if resBy.Valid {
			s := resBy.String
			d.RescheduledBy = &s
		}
		if confDate.Valid {
			s := confDate.String
			d.ConfirmedDate = &s
		}
		if confTime.Valid {
			s := confTime.String
			d.ConfirmedTime = &s
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveForTenant returns the tenant's non-terminal visit requests
// joined with pg name/address and room number. Order is caller
// selectable: "recent" (default) or "visit_date".
func (r *VisitRequestRepo) ListActiveForTenant(ctx context.Context, tenantUserID uint64, order string) ([]VisitRequestDetail, error) {
	q := visitDetailSelect + `
	WHERE v.tenant_user_id = ? AND v.status IN ('pending','approved','rescheduled') ` + visitOrder(order)
	rows, err := r.db.QueryContext(ctx, q, tenantUserID)
	if err != nil {
		return nil, err
	}
	return collectVisitDetails(rows)
}

// ListForOwner returns visit requests addressed to the owner, optionally
// scoped to a single pg and a single status. With an empty status it
// returns every request including cancelled and completed ones, so the
// owner dashboard doubles as the request history; tenants only ever see
// their active requests.
func (r *VisitRequestRepo) ListForOwner(ctx context.Context, ownerID uint64, pgID *uint64, status, order string) ([]VisitRequestDetail, error) {
	q := visitDetailSelect + `
	WHERE v.owner_id = ?`
	args := []interface{}{ownerID}
	if pgID != nil {
		q += " AND v.pg_id = ?"
		args = append(args, *pgID)
	}
	if status != "" {
		q += " AND v.status = ?"
		args = append(args, status)
	}
	q += " " + visitOrder(order)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectVisitDetails(rows)
}
