package domain

import "time"

// HandRaiseID doubles as the speech id once the raise is approved.
type HandRaiseID string

// HandRaise is one pending entry in a room's hand-raise queue.
// Position is assigned in raise order and never reused or renumbered.
// Level is display metadata and must not influence queue order.
type HandRaise struct {
	ID       HandRaiseID `json:"hand_raise_id"`
	UserID   UserID      `json:"user_id"`
	Position int64       `json:"queue_position"`
	Level    int         `json:"level"`
	RaisedAt time.Time   `json:"raised_at"`
}
