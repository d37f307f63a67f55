package model

import "time"

// Onboarding request status values.  `approved` and `rejected` are
// terminal; there is no cancellation path for onboarding requests.
const (
	OnboardingPending  = "pending"
	OnboardingApproved = "approved"
	OnboardingRejected = "rejected"
)

// OnboardingRequest is a tenant's formal request to move into a specific
// room.  Unlike a visit request the room is mandatory.  The profile
// fields are a snapshot supplied by the tenant at request time and are
// copied onto the tenant record when the request is approved.
//
// Fields:
//
//	ID               – primary key identifier.
//	TenantUserID     – user requesting to move in.
//	VisitRequestID   – optional link back to the visit that led here.
//	PgID             – pg being moved into.
//	RoomID           – room being moved into (required).
//	OwnerID          – owner of the pg (denormalized, see VisitRequest).
//	FullName         – tenant-supplied name snapshot.
//	Email            – tenant-supplied contact email.
//	Phone            – tenant-supplied contact phone.
//	MonthlyRentCents – agreed monthly rent in cents.
//	ImageURL         – optional profile image reference.
//	IDDocumentURL    – optional identity document reference.
//	EmergencyContact – optional emergency contact.
//	Status           – pending | approved | rejected.
//	RejectionReason  – owner-supplied reason, set on rejection.
//	CreatedAt        – creation timestamp.
//	ApprovedAt       – set when the request is approved.
//	UpdatedAt        – last update timestamp.
type OnboardingRequest struct {
	ID               uint64     // onboarding_requests.id
	TenantUserID     uint64     // onboarding_requests.tenant_user_id
	VisitRequestID   *uint64    // onboarding_requests.visit_request_id (nullable)
	PgID             uint64     // onboarding_requests.pg_id
	RoomID           uint64     // onboarding_requests.room_id
	OwnerID          uint64     // onboarding_requests.owner_id
	FullName         string     // onboarding_requests.full_name
	Email            string     // onboarding_requests.email
	Phone            string     // onboarding_requests.phone
	MonthlyRentCents uint32     // onboarding_requests.monthly_rent_cents
	ImageURL         *string    // onboarding_requests.image_url (nullable)
	IDDocumentURL    *string    // onboarding_requests.id_document_url (nullable)
	EmergencyContact *string    // onboarding_requests.emergency_contact (nullable)
	Status           string     // onboarding_requests.status
	RejectionReason  *string    // onboarding_requests.rejection_reason (nullable)
	CreatedAt        time.Time  // onboarding_requests.created_at
	ApprovedAt       *time.Time // onboarding_requests.approved_at (nullable)
	UpdatedAt        time.Time  // onboarding_requests.updated_at
}

// OnboardingActiveStatuses are the states in which an onboarding request
// blocks a second request for the same (tenant, pg) pair and hides the
// "request onboarding" action in clients.
var OnboardingActiveStatuses = []string{OnboardingPending, OnboardingApproved}

// OnboardingCanDecide reports whether an owner may approve or reject the
// request from the given state.  Both decisions are valid only while the
// request is pending.
func OnboardingCanDecide(status string) bool { return status == OnboardingPending }
