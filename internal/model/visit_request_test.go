package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitTransitions(t *testing.T) {
	all := []string{VisitPending, VisitApproved, VisitRescheduled, VisitCompleted, VisitCancelled}

	allowed := map[string]map[string]bool{
		"reschedule": {VisitPending: true, VisitApproved: true},
		"complete":   {VisitApproved: true},
		"cancel":     {VisitPending: true, VisitApproved: true, VisitRescheduled: true},
	}
	guards := map[string]func(string) bool{
		"reschedule": VisitCanReschedule,
		"complete":   VisitCanComplete,
		"cancel":     VisitCanCancel,
	}

	for op, guard := range guards {
		for _, status := range all {
			got := guard(status)
			assert.Equalf(t, allowed[op][status], got, "%s from %s", op, status)
		}
	}
}

// Approval and reschedule acceptance depend on who proposed the current
// slot: a tenant proposal waits for the owner's approval, an owner
// proposal waits for the tenant's acceptance.
func TestVisitProposerAwareGuards(t *testing.T) {
	owner, tenant := RescheduledByOwner, RescheduledByTenant

	assert.True(t, VisitCanApprove(VisitPending, nil))
	assert.True(t, VisitCanApprove(VisitRescheduled, &tenant))
	assert.False(t, VisitCanApprove(VisitRescheduled, &owner))
	assert.False(t, VisitCanApprove(VisitRescheduled, nil))
	assert.False(t, VisitCanApprove(VisitApproved, nil))
	assert.False(t, VisitCanApprove(VisitCancelled, &tenant))

	assert.True(t, VisitCanAcceptReschedule(VisitRescheduled, &owner))
	assert.False(t, VisitCanAcceptReschedule(VisitRescheduled, &tenant))
	assert.False(t, VisitCanAcceptReschedule(VisitRescheduled, nil))
	assert.False(t, VisitCanAcceptReschedule(VisitPending, &owner))
	assert.False(t, VisitCanAcceptReschedule(VisitApproved, &owner))
}

func TestVisitDatePassed(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	assert.True(t, VisitDatePassed("2026-03-14", now), "yesterday has passed")
	assert.True(t, VisitDatePassed("2026-03-15", now), "the visit day itself counts")
	assert.False(t, VisitDatePassed("2026-03-16", now), "tomorrow has not arrived")
	assert.False(t, VisitDatePassed("not-a-date", now), "garbage never passes")
	assert.False(t, VisitDatePassed("", now))
}
