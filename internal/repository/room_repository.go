// Room persistence and the occupancy ledger.
//
// The rooms table carries a derived status column (vacant,
// partially_occupied, fully_occupied) that is recomputed inside the
// same transaction as every occupant mutation; room_occupants is the
// canonical membership list. AssignTenantTx and ReleaseTenantTx are the
// only code paths that touch room_occupants, and both lock the room row
// first, so two approvals racing for the last slot serialize on the row
// lock and only one can win.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/pg-rental-management/internal/model"
)

// Room mirrors the `rooms` table. Occupancy is stored separately in
// room_occupants; Status is the derived classification of the occupant
// count against Sharing.
type Room struct {
	ID               uint64
	PgID             uint64
	OwnerID          uint64
	RoomNumber       string
	Sharing          uint32
	MonthlyRentCents uint32
	Status           string
	CreatedAt        string
	UpdatedAt        string
}

// ErrRoomNumberExists is returned when a room number collides with an
// existing room of the same pg.
var ErrRoomNumberExists = errors.New("room number already exists in this pg")

// RoomRepo encapsulates database operations for rooms and the occupancy
// ledger.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo given a DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying pool for handler-level transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

// Create inserts a new room. Rooms start vacant. Room numbers are unique
// within a pg (enforced by a unique key); collisions surface as
// ErrRoomNumberExists.
func (r *RoomRepo) Create(ctx context.Context, rm *Room) error {
	const qInsert = `INSERT INTO rooms (pg_id, owner_id, room_number, sharing, monthly_rent_cents, status)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, rm.PgID, rm.OwnerID, rm.RoomNumber, rm.Sharing, rm.MonthlyRentCents, model.RoomVacant)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrRoomNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)

	const qSelect = `SELECT pg_id, owner_id, room_number, sharing, monthly_rent_cents, status, created_at, updated_at
	                 FROM rooms WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, rm.ID).Scan(
		&rm.PgID, &rm.OwnerID, &rm.RoomNumber, &rm.Sharing, &rm.MonthlyRentCents, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt)
}

// GetByID fetches a room by id. Returns sql.ErrNoRows when missing.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*Room, error) {
	const q = `SELECT id, pg_id, owner_id, room_number, sharing, monthly_rent_cents, status, created_at, updated_at
	           FROM rooms WHERE id = ?`
	var rm Room
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rm.ID, &rm.PgID, &rm.OwnerID, &rm.RoomNumber, &rm.Sharing, &rm.MonthlyRentCents, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// GetForUpdateTx loads a room under a row-level lock inside the provided
// transaction. Every occupancy mutation and every capacity re-check in
// the tenant conversion goes through this lock.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*Room, error) {
	const q = `SELECT id, pg_id, owner_id, room_number, sharing, monthly_rent_cents, status, created_at, updated_at
	           FROM rooms WHERE id = ? FOR UPDATE`
	var rm Room
	if err := tx.QueryRowContext(ctx, q, id).Scan(
		&rm.ID, &rm.PgID, &rm.OwnerID, &rm.RoomNumber, &rm.Sharing, &rm.MonthlyRentCents, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// ListByPg returns all rooms of a pg ordered by room number.
func (r *RoomRepo) ListByPg(ctx context.Context, pgID uint64) ([]*Room, error) {
	const q = `SELECT id, pg_id, owner_id, room_number, sharing, monthly_rent_cents, status, created_at, updated_at
	           FROM rooms WHERE pg_id = ? ORDER BY room_number`
	rows, err := r.db.QueryContext(ctx, q, pgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Room
	for rows.Next() {
		rm := new(Room)
		if err := rows.Scan(&rm.ID, &rm.PgID, &rm.OwnerID, &rm.RoomNumber, &rm.Sharing, &rm.MonthlyRentCents, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountOccupantsTx returns the number of occupants of a room within the
// provided transaction.
func (r *RoomRepo) CountOccupantsTx(ctx context.Context, tx *sql.Tx, roomID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM room_occupants WHERE room_id = ?", roomID).Scan(&n)
	return n, err
}

// AssignTenantTx attaches a tenant to a room within the provided
// transaction and recomputes the derived status. The room row is locked
// first so the capacity check and the insert are one critical section.
// Assigning a tenant who is already an occupant is a no-op (idempotent).
// Returns ErrRoomFull when the room is at capacity and sql.ErrNoRows
// when the room does not exist. The updated status is returned so
// callers can report it without re-querying.
func (r *RoomRepo) AssignTenantTx(ctx context.Context, tx *sql.Tx, roomID, tenantID uint64) (string, error) {
	rm, err := r.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return "", err
	}

	var present int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM room_occupants WHERE room_id = ? AND tenant_id = ?",
		roomID, tenantID).Scan(&present); err != nil {
		return "", err
	}
	if present > 0 {
		// Already a member; status is necessarily up to date.
		return rm.Status, nil
	}

	count, err := r.CountOccupantsTx(ctx, tx, roomID)
	if err != nil {
		return "", err
	}
	if count >= int(rm.Sharing) {
		return "", ErrRoomFull
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO room_occupants (room_id, tenant_id) VALUES (?, ?)",
		roomID, tenantID); err != nil {
		return "", err
	}

	status := model.ComputeRoomStatus(count+1, rm.Sharing)
	if err := r.updateStatusTx(ctx, tx, roomID, status); err != nil {
		return "", err
	}
	return status, nil
}

// ReleaseTenantTx detaches a tenant from a room within the provided
// transaction and recomputes the derived status. Releasing a tenant who
// is not an occupant is a no-op.
func (r *RoomRepo) ReleaseTenantTx(ctx context.Context, tx *sql.Tx, roomID, tenantID uint64) (string, error) {
	rm, err := r.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return "", err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM room_occupants WHERE room_id = ? AND tenant_id = ?",
		roomID, tenantID)
	if err != nil {
		return "", err
	}
	removed, _ := res.RowsAffected()
	if removed == 0 {
		return rm.Status, nil
	}

	count, err := r.CountOccupantsTx(ctx, tx, roomID)
	if err != nil {
		return "", err
	}
	status := model.ComputeRoomStatus(count, rm.Sharing)
	if err := r.updateStatusTx(ctx, tx, roomID, status); err != nil {
		return "", err
	}
	return status, nil
}

func (r *RoomRepo) updateStatusTx(ctx context.Context, tx *sql.Tx, roomID uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE rooms SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, roomID)
	return err
}

// Update changes sharing capacity and rent if the room belongs to the
// provided owner. Shrinking sharing below the current occupant count is
// refused with ErrConflict; the derived status is recomputed against the
// new capacity.
func (r *RoomRepo) Update(ctx context.Context, id, ownerID uint64, sharing, rentCents uint32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rm, err := r.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if rm.OwnerID != ownerID {
		return ErrForbidden
	}
	count, err := r.CountOccupantsTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if int(sharing) < count {
		return ErrConflict
	}
	status := model.ComputeRoomStatus(count, sharing)
	if _, err := tx.ExecContext(ctx,
		`UPDATE rooms SET sharing = ?, monthly_rent_cents = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sharing, rentCents, status, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteByIDAndOwner removes a room owned by the caller. Deletion is
// refused with ErrConflict while the room is occupied; on success any
// still-active visit requests pointing at the room are cancelled and
// pending onboarding requests for it are rejected.
func (r *RoomRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rm, err := r.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if rm.OwnerID != ownerID {
		return ErrForbidden
	}
	count, err := r.CountOccupantsTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE visit_requests SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		 WHERE room_id = ? AND status IN ('pending','approved','rescheduled')`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE onboarding_requests SET status = 'rejected', rejection_reason = 'room was removed', updated_at = CURRENT_TIMESTAMP
		 WHERE room_id = ? AND status = 'pending'`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
