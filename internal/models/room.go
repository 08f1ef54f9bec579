package models

import "time"

// RoomStatus is the closed set of room states.
type RoomStatus string

const (
	RoomFree     RoomStatus = "FREE"
	RoomOccupied RoomStatus = "OCCUPIED"
	RoomClosed   RoomStatus = "CLOSED"
)

// ParseRoomStatus validates a textual status against the closed enum set.
func ParseRoomStatus(raw string) (RoomStatus, bool) {
	switch RoomStatus(raw) {
	case RoomFree, RoomOccupied, RoomClosed:
		return RoomStatus(raw), true
	default:
		return "", false
	}
}

// MinRoomCapacity is the smallest capacity a room may be registered with.
const MinRoomCapacity = 10

// Room represents a bookable course room.
type Room struct {
	Code        string     `db:"code_room" json:"code"`
	Description string     `db:"description" json:"description"`
	Capacity    int        `db:"capacity" json:"capacity"`
	Status      RoomStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
