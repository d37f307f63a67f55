package model

import "time"

// Visit request status values.  `completed` and `cancelled` are terminal.
// The lowercase spelling is what clients receive and what the mobile app
// filters on.
const (
	VisitPending     = "pending"
	VisitApproved    = "approved"
	VisitRescheduled = "rescheduled"
	VisitCompleted   = "completed"
	VisitCancelled   = "cancelled"
)

// Reschedule actor values stored in visit_requests.rescheduled_by.
const (
	RescheduledByOwner  = "owner"
	RescheduledByTenant = "tenant"
)

// VisitRequest records one tenant's request to physically visit a pg,
// optionally a specific room.  OwnerID is denormalized from the pg at
// creation time so owner-scoped listings avoid a join; pgs.owner_id
// remains the source of truth and the copy must never diverge.
//
// Requested/rescheduled/confirmed dates are DATE columns carried as
// "2006-01-02" strings with a free-form time slot alongside, matching
// how the booking clients submit them.  ConfirmedDate/Time hold the
// agreed-upon final slot and are only set on approval.
//
// Fields:
//
//	ID              – primary key identifier.
//	TenantUserID    – user who requested the visit.
//	PgID            – pg being visited.
//	OwnerID         – owner of the pg (denormalized).
//	RoomID          – optional specific room of interest.
//	RequestedDate   – date asked for by the tenant.
//	RequestedTime   – time slot asked for by the tenant.
//	Status          – lifecycle state, see constants above.
//	RescheduledDate – proposed replacement date, set while rescheduled.
//	RescheduledTime – proposed replacement time slot.
//	RescheduledBy   – which party proposed the new slot (owner|tenant).
//	ConfirmedDate   – the agreed final date, set on approval.
//	ConfirmedTime   – the agreed final time slot.
//	Notes           – free-form note from the tenant.
//	OwnerNotes      – free-form note from the owner.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type VisitRequest struct {
	ID              uint64    // visit_requests.id
	TenantUserID    uint64    // visit_requests.tenant_user_id
	PgID            uint64    // visit_requests.pg_id
	OwnerID         uint64    // visit_requests.owner_id
	RoomID          *uint64   // visit_requests.room_id (nullable)
	RequestedDate   string    // visit_requests.requested_date
	RequestedTime   string    // visit_requests.requested_time
	Status          string    // visit_requests.status
	RescheduledDate *string   // visit_requests.rescheduled_date (nullable)
	RescheduledTime *string   // visit_requests.rescheduled_time (nullable)
	RescheduledBy   *string   // visit_requests.rescheduled_by (nullable)
	ConfirmedDate   *string   // visit_requests.confirmed_date (nullable)
	ConfirmedTime   *string   // visit_requests.confirmed_time (nullable)
	Notes           string    // visit_requests.notes
	OwnerNotes      string    // visit_requests.owner_notes
	CreatedAt       time.Time // visit_requests.created_at
	UpdatedAt       time.Time // visit_requests.updated_at
}

// VisitActiveStatuses are the states in which a visit request blocks a
// second request for the same (tenant, pg) pair.
var VisitActiveStatuses = []string{VisitPending, VisitApproved, VisitRescheduled}

// VisitCanApprove reports whether an owner may approve a visit from the
// given state.  Pending requests and tenant-proposed reschedules both
// await the owner's decision; re-approving an approved request is
// rejected.
func VisitCanApprove(status string, rescheduledBy *string) bool {
	if status == VisitPending {
		return true
	}
	return status == VisitRescheduled && rescheduledBy != nil && *rescheduledBy == RescheduledByTenant
}

// VisitCanReschedule reports whether a new slot may be proposed from the
// given state.  Either party may propose; a pending counter-proposal
// must be resolved before a new one.
func VisitCanReschedule(status string) bool {
	return status == VisitPending || status == VisitApproved
}

// VisitCanAcceptReschedule reports whether the tenant may accept a
// proposed slot.  Only owner-proposed slots await the tenant; a
// tenant-proposed slot awaits the owner via approval instead.
func VisitCanAcceptReschedule(status string, rescheduledBy *string) bool {
	return status == VisitRescheduled && rescheduledBy != nil && *rescheduledBy == RescheduledByOwner
}

// VisitCanComplete reports whether the tenant may mark the visit as
// completed from the given state.  The date gate (the confirmed slot
// must be in the past) is enforced separately.
func VisitCanComplete(status string) bool { return status == VisitApproved }

// VisitCanCancel reports whether the request may be cancelled from the
// given state.  All non-terminal states may be cancelled.
func VisitCanCancel(status string) bool {
	return status != VisitCompleted && status != VisitCancelled
}

// VisitDatePassed reports whether the given "2006-01-02" date is on or
// before today's date in UTC, i.e. the visit can plausibly have taken
// place.  Completing a visit ahead of its scheduled day is rejected
// server-side; the check ignores the time slot since those are
// free-form strings.
func VisitDatePassed(date string, now time.Time) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	today := now.UTC().Truncate(24 * time.Hour)
	return !d.After(today)
}
