// Package queue defines message payloads exchanged over the message broker.
package queue

// Workflow event types published to the workflow.events queue. Each
// corresponds to one tenant-facing notification.
const (
	EventVisitApproved      = "visit.approved"
	EventVisitRescheduled   = "visit.rescheduled"
	EventOnboardingApproved = "onboarding.approved"
	EventOnboardingRejected = "onboarding.rejected"
	EventTenantReleased     = "tenant.released"
)

// WorkflowEvent is published whenever a visit or onboarding request
// changes state in a way the other party should hear about. It carries
// enough context for downstream consumers to write the in-app
// notification and a structured log line without querying the primary
// database. Publishing is fire-and-forget: a broker failure never fails
// the request that produced the event.
type WorkflowEvent struct {
	Type        string `json:"type"`
	UserID      uint64 `json:"user_id"`      // recipient of the notification
	ReferenceID uint64 `json:"reference_id"` // visit or onboarding request id
	PgID        uint64 `json:"pg_id"`
	PgName      string `json:"pg_name"`
	RoomNumber  string `json:"room_number,omitempty"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	OccurredAt  string `json:"occurred_at"`
}
