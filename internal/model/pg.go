package model

import "time"

// PG represents a paying-guest property owned by a user.  A pg can
// contain multiple rooms.  Each pg belongs to one owner.  This struct
// corresponds to a row in the `pgs` table.
//
// Fields:
//
//	ID        – primary key identifier.
//	OwnerID   – user ID of the pg owner.
//	Name      – unique name of the pg per owner.
//	Address   – street address shown to applicants.
//	CreatedAt – timestamp when the pg was created.
//	UpdatedAt – timestamp of last update.
type PG struct {
	ID        uint64    // pgs.id
	OwnerID   uint64    // pgs.owner_id
	Name      string    // pgs.name
	Address   string    // pgs.address
	CreatedAt time.Time // pgs.created_at
	UpdatedAt time.Time // pgs.updated_at
}
