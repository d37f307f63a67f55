package model

import "time"

// Role values stored in users.role and carried in the JWT "role" claim.
// APPLICANT is the default for people searching for a room; the role flips
// to TENANT when an onboarding request is approved for them and reverts to
// APPLICANT when they are released from their room.  OWNER manages pgs,
// ADMIN governs owner properties.
const (
	RoleOwner     = "OWNER"
	RoleTenant    = "TENANT"
	RoleApplicant = "APPLICANT"
	RoleAdmin     = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  The role field is a derived, mutable classification: it is
// mutated by the onboarding and release flows, never by the user
// directly.  Handlers define separate response types with JSON tags.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password; empty for accounts created by an
//	               owner on behalf of a tenant who has never logged in.
//	Role         – one of OWNER, TENANT, APPLICANT, ADMIN.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RoleOnAssigned returns the role a user should hold after being assigned
// to a room.  An applicant becomes a tenant; a user who is already a
// tenant stays one (re-onboarding into another pg).  Owners and admins
// are never reclassified by occupancy events.
func RoleOnAssigned(current string) string {
	if current == RoleApplicant {
		return RoleTenant
	}
	return current
}

// RoleOnRemoved returns the role a user should hold after being released
// from their room.  A tenant reverts to applicant so they can search and
// onboard again; all other roles are left untouched.
func RoleOnRemoved(current string) string {
	if current == RoleTenant {
		return RoleApplicant
	}
	return current
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
