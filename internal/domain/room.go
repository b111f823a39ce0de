package domain

import "time"

type (
	RoomID    string
	RoomTitle string
)

type RoomStatus string

const (
	RoomCreated RoomStatus = "created"
	RoomActive  RoomStatus = "active"
	RoomEnded   RoomStatus = "ended"
)

type Room struct {
	ID        RoomID     `json:"id"`
	Title     RoomTitle  `json:"title"`
	HostID    UserID     `json:"host_id"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt time.Time  `json:"started_at,omitzero"`
	EndedAt   time.Time  `json:"ended_at,omitzero"`
}
