package domain

import "time"

// ChatMessage is immutable once appended. Seq is assigned by the room
// session and is gap-free and strictly increasing within a room.
type ChatMessage struct {
	Seq        int64     `json:"seq"`
	SenderID   UserID    `json:"user_id"`
	SenderName string    `json:"username"`
	Text       string    `json:"message"`
	SentAt     time.Time `json:"timestamp"`
}
