// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them to HTTP responses. Missing rows are reported as sql.ErrNoRows
// throughout; the sentinels below cover the business conditions on top
// of plain row lookups.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a room that still has
// occupants. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrRoomFull is returned when a tenant assignment would exceed the
// room's sharing capacity. This is an expected business condition (two
// approvals racing for the last slot); the triggering onboarding request
// stays pending and the owner is told to pick another room.
var ErrRoomFull = errors.New("room is full")

// ErrDuplicateActiveRequest is returned when a tenant already has an
// active visit or onboarding request for the same pg. Enforced at write
// time inside the creation transaction, not just in the read model, so
// concurrent creations cannot slip through.
var ErrDuplicateActiveRequest = errors.New("active request already exists for this pg")
