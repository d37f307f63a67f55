package model

import "time"

// Room status values derived from occupancy.  The status column is
// redundant with the occupant count but is kept for cheap filtering; no
// code path may persist a room whose status disagrees with
// ComputeRoomStatus of its occupant count and sharing capacity.
const (
	RoomVacant            = "vacant"
	RoomPartiallyOccupied = "partially_occupied"
	RoomFullyOccupied     = "fully_occupied"
)

// Room describes a physical room inside a pg.  Rooms are uniquely
// identified by their pg and room number.  Sharing is the maximum number
// of simultaneous occupants; the invariant `occupants <= sharing` holds
// after every assignment and release.
//
// Fields:
//
//	ID               – primary key identifier.
//	PgID             – pg to which this room belongs.
//	OwnerID          – user ID of the pg owner (denormalized from the pg).
//	RoomNumber       – number or label unique within the pg.
//	Sharing          – sharing capacity, at least 1.
//	MonthlyRentCents – monthly rent per occupant in cents.
//	Status           – derived occupancy status, see ComputeRoomStatus.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Room struct {
	ID               uint64    // rooms.id
	PgID             uint64    // rooms.pg_id
	OwnerID          uint64    // rooms.owner_id
	RoomNumber       string    // rooms.room_number
	Sharing          uint32    // rooms.sharing
	MonthlyRentCents uint32    // rooms.monthly_rent_cents
	Status           string    // rooms.status
	CreatedAt        time.Time // rooms.created_at
	UpdatedAt        time.Time // rooms.updated_at
}

// ComputeRoomStatus classifies a room from its occupant count and sharing
// capacity: vacant when empty, fully occupied when at capacity, partially
// occupied otherwise.  It must be re-evaluated after every occupant
// mutation.
func ComputeRoomStatus(occupants int, sharing uint32) string {
	switch {
	case occupants <= 0:
		return RoomVacant
	case occupants >= int(sharing):
		return RoomFullyOccupied
	default:
		return RoomPartiallyOccupied
	}
}
