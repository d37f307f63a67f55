package repository

import (
	"context"
	"database/sql"
	"time"
)

// TenantRecord mirrors the `tenants` table: the occupant record tied to
// an owner's pg and room, distinct from the occupant's user account.
// One row exists per (owner, user) pair; re-onboarding with the same
// owner moves the row instead of duplicating it.
type TenantRecord struct {
	ID               uint64
	OwnerID          uint64
	PgID             uint64
	RoomID           *uint64
	UserID           uint64
	Name             string
	Email            string
	Phone            string
	MonthlyRentCents uint32
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TenantRepo provides data access to the tenants table. All mutation
// methods take a transaction because tenant rows are only ever written
// as part of the conversion and release flows, which span several
// tables.
type TenantRepo struct {
	db *sql.DB
}

// NewTenantRepo returns a TenantRepo bound to the given database.
func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

// GetByOwnerAndUserTx fetches the tenant row for an (owner, user) pair
// within the provided transaction. Returns sql.ErrNoRows when the person
// has never been this owner's tenant.
func (r *TenantRepo) GetByOwnerAndUserTx(ctx context.Context, tx *sql.Tx, ownerID, userID uint64) (*TenantRecord, error) {
	const q = `SELECT id, owner_id, pg_id, room_id, user_id, name, email, phone, monthly_rent_cents, status, created_at, updated_at
	           FROM tenants WHERE owner_id = ? AND user_id = ? LIMIT 1`
	var t TenantRecord
	var roomID sql.NullInt64
	err := tx.QueryRowContext(ctx, q, ownerID, userID).Scan(
		&t.ID, &t.OwnerID, &t.PgID, &roomID, &t.UserID, &t.Name, &t.Email, &t.Phone,
		&t.MonthlyRentCents, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		rid := uint64(roomID.Int64)
		t.RoomID = &rid
	}
	return &t, nil
}

// GetByID fetches a tenant row by id.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (*TenantRecord, error) {
	const q = `SELECT id, owner_id, pg_id, room_id, user_id, name, email, phone, monthly_rent_cents, status, created_at, updated_at
	           FROM tenants WHERE id = ? LIMIT 1`
	var t TenantRecord
	var roomID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.OwnerID, &t.PgID, &roomID, &t.UserID, &t.Name, &t.Email, &t.Phone,
		&t.MonthlyRentCents, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		rid := uint64(roomID.Int64)
		t.RoomID = &rid
	}
	return &t, nil
}

// CreateTx inserts a new tenant row within the provided transaction and
// populates the generated ID. Status starts as active.
func (r *TenantRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *TenantRecord) error {
	const q = `INSERT INTO tenants (owner_id, pg_id, room_id, user_id, name, email, phone, monthly_rent_cents, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'active')`
	res, err := tx.ExecContext(ctx, q, t.OwnerID, t.PgID, t.RoomID, t.UserID, t.Name, t.Email, t.Phone, t.MonthlyRentCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// UpdatePlacementTx moves an existing tenant row to a new pg/room with a
// new rent and reactivates it. Used when a previously released tenant
// re-onboards with the same owner.
func (r *TenantRepo) UpdatePlacementTx(ctx context.Context, tx *sql.Tx, id, pgID, roomID uint64, rentCents uint32) error {
	const q = `UPDATE tenants
	           SET pg_id = ?, room_id = ?, monthly_rent_cents = ?, status = 'active', updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, pgID, roomID, rentCents, id)
	return err
}

// ReleaseTx marks a tenant as released: room link cleared, status
// inactive. The room_occupants row is removed separately by the
// occupancy ledger inside the same transaction.
func (r *TenantRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE tenants
	           SET room_id = NULL, status = 'inactive', updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// ListByOwner returns the owner's tenants, optionally scoped to one pg,
// newest first.
func (r *TenantRepo) ListByOwner(ctx context.Context, ownerID uint64, pgID *uint64) ([]*TenantRecord, error) {
	q := `SELECT id, owner_id, pg_id, room_id, user_id, name, email, phone, monthly_rent_cents, status, created_at, updated_at
	      FROM tenants WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if pgID != nil {
		q += " AND pg_id = ?"
		args = append(args, *pgID)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TenantRecord
	for rows.Next() {
		t := new(TenantRecord)
		var roomID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.PgID, &roomID, &t.UserID, &t.Name, &t.Email, &t.Phone,
			&t.MonthlyRentCents, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if roomID.Valid {
			rid := uint64(roomID.Int64)
			t.RoomID = &rid
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
