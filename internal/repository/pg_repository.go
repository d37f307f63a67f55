// Package repository contains data access logic separated from HTTP handlers.
// This file defines the PG model and repository methods for CRUD and lookup
// operations. A PG (paying-guest property) is a venue that can contain
// multiple rooms. Only minimal fields should be exposed in public API
// responses.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// PG represents a paying-guest property persisted in the database. Each pg
// belongs to a single owner and may contain multiple rooms. The ID field
// is the primary key and is auto-incremented by the DB.
type PG struct {
	ID        uint64 // ID is the unique identifier of the pg
	OwnerID   uint64 // OwnerID references the users.id of the pg owner
	Name      string // Name is the human-friendly name of the pg
	Address   string // Address is the street address shown to applicants
	CreatedAt string // CreatedAt stores when the row was created
	UpdatedAt string // UpdatedAt stores when the row was last updated
}

// ErrPgNotFound is returned when a pg cannot be found in the DB.
var ErrPgNotFound = errors.New("pg not found")

// PgRepo encapsulates all database queries related to pgs.
type PgRepo struct {
	db *sql.DB
}

// NewPgRepo constructs a PgRepo with the provided DB handle.
func NewPgRepo(db *sql.DB) *PgRepo {
	return &PgRepo{db: db}
}

// DB exposes the underlying connection pool so handlers can open
// transactions that span multiple repositories.
func (r *PgRepo) DB() *sql.DB { return r.db }

// Create inserts a new pg into the database. On success the pg's ID field
// is populated with the auto-generated value and a follow-up SELECT fills
// the timestamp defaults so callers receive a fully populated record.
func (r *PgRepo) Create(ctx context.Context, p *PG) error {
	const qInsert = "INSERT INTO pgs (owner_id, name, address) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, p.OwnerID, p.Name, p.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = "SELECT owner_id, name, address, created_at, updated_at FROM pgs WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, p.ID).Scan(&p.OwnerID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a pg by its ID regardless of owner. It returns
// ErrPgNotFound if no row is found. Request creation uses this to
// denormalize owner_id onto visit and onboarding requests.
func (r *PgRepo) GetByID(ctx context.Context, id uint64) (*PG, error) {
	const q = "SELECT id, owner_id, name, address, created_at, updated_at FROM pgs WHERE id = ?"
	var p PG
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPgNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns all pgs for a specific owner ordered by id.
func (r *PgRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*PG, error) {
	const q = `SELECT id, owner_id, name, address, created_at, updated_at
	           FROM pgs WHERE owner_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PG
	for rows.Next() {
		p := new(PG)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns all pgs regardless of owner. It is used for public
// browsing by applicants.
func (r *PgRepo) ListAll(ctx context.Context) ([]*PG, error) {
	const q = `SELECT id, owner_id, name, address, created_at, updated_at FROM pgs ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PG
	for rows.Next() {
		p := new(PG)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes name and address. The row is locked first so the
// ownership check and the write see the same owner. Returns
// ErrPgNotFound when the pg does not exist and ErrForbidden when it
// belongs to someone else; writing identical values is a harmless no-op.
func (r *PgRepo) Update(ctx context.Context, id, ownerID uint64, name, address string) error {
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

	var actualOwnerID uint64
	if err := tx.QueryRowContext(ctx, "SELECT owner_id FROM pgs WHERE id = ? FOR UPDATE", id).Scan(&actualOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPgNotFound
		}
		return err
	}
	if actualOwnerID != ownerID {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pgs SET name = ?, address = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, address, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteByIDAndOwner removes a pg together with its rooms and cancels any
// still-active visit and onboarding requests pointing at it. Deletion is
// refused with ErrConflict while any room of the pg is occupied; the
// owner must release the tenants first. Ownership violations return
// ErrForbidden and a missing pg returns sql.ErrNoRows.
func (r *PgRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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

	var actualOwnerID uint64
	if err := tx.QueryRowContext(ctx, "SELECT owner_id FROM pgs WHERE id = ? FOR UPDATE", id).Scan(&actualOwnerID); err != nil {
		return err // sql.ErrNoRows when the pg does not exist
	}
	if actualOwnerID != ownerID {
		return ErrForbidden
	}

	// Refuse while anyone still lives in the pg.
	var occupied int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM room_occupants ro JOIN rooms rm ON rm.id = ro.room_id WHERE rm.pg_id = ?`,
		id).Scan(&occupied); err != nil {
		return err
	}
	if occupied > 0 {
		return ErrConflict
	}

	// Cascade-cancel active requests so clients stop seeing them as live.
	if _, err := tx.ExecContext(ctx,
		`UPDATE visit_requests SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		 WHERE pg_id = ? AND status IN ('pending','approved','rescheduled')`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE onboarding_requests SET status = 'rejected', rejection_reason = 'pg was removed', updated_at = CURRENT_TIMESTAMP
		 WHERE pg_id = ? AND status = 'pending'`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE pg_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pgs WHERE id = ?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
