package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRoomStatus(t *testing.T) {
	cases := []struct {
		name      string
		occupants int
		sharing   uint32
		want      string
	}{
		{"empty room", 0, 3, RoomVacant},
		{"negative occupants treated as vacant", -1, 3, RoomVacant},
		{"one of three", 1, 3, RoomPartiallyOccupied},
		{"two of three", 2, 3, RoomPartiallyOccupied},
		{"at capacity", 3, 3, RoomFullyOccupied},
		{"over capacity still full", 4, 3, RoomFullyOccupied},
		{"single sharing occupied", 1, 1, RoomFullyOccupied},
		{"single sharing empty", 0, 1, RoomVacant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeRoomStatus(tc.occupants, tc.sharing))
		})
	}
}
