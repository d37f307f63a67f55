package model

import "time"

// Tenant occupancy status values.  An active tenant occupies a room; an
// inactive tenant has been released and keeps the row only as a billing
// history anchor.
const (
	TenantActive   = "active"
	TenantInactive = "inactive"
)

// Tenant is the occupant record tied to an owner's pg and room, distinct
// from the occupant's User account.  It is the system of record for
// billing and room membership.  A tenant row is created either directly
// by an owner or by an approved onboarding request; when the same person
// re-onboards with the same owner the existing row is moved rather than
// duplicated (unique on owner_id + user_id).
//
// Fields:
//
//	ID               – primary key identifier.
//	OwnerID          – owner this tenant belongs to.
//	PgID             – pg the tenant lives in.
//	RoomID           – room the tenant occupies (nil once released).
//	UserID           – link to the User who is the actual person.
//	Name             – name snapshot taken at onboarding.
//	Email            – contact email snapshot.
//	Phone            – contact phone snapshot.
//	MonthlyRentCents – monthly rent in cents.
//	Status           – active | inactive.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Tenant struct {
	ID               uint64    // tenants.id
	OwnerID          uint64    // tenants.owner_id
	PgID             uint64    // tenants.pg_id
	RoomID           *uint64   // tenants.room_id (nullable)
	UserID           uint64    // tenants.user_id
	Name             string    // tenants.name
	Email            string    // tenants.email
	Phone            string    // tenants.phone
	MonthlyRentCents uint32    // tenants.monthly_rent_cents
	Status           string    // tenants.status
	CreatedAt        time.Time // tenants.created_at
	UpdatedAt        time.Time // tenants.updated_at
}
