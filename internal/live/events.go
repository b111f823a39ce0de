package live

import (
	"time"

	"github.com/fomoclub/liveroom/internal/domain"
)

// EventType values are the wire `type` fields the client dispatches on.
type EventType string

const (
	EventRoomData         EventType = "room_data"
	EventUserJoined       EventType = "user_joined"
	EventUserLeft         EventType = "user_left"
	EventHandRaisedUpdate EventType = "hand_raised_update"
	EventChatMessage      EventType = "chat_message"
	EventUserPromoted     EventType = "user_promoted"
	EventUserDemoted      EventType = "user_demoted"
	EventSpeakingStatus   EventType = "speaking_status"
	EventSpeechEnded      EventType = "speech_ended"
	EventSupportReceived  EventType = "support_received"
	EventRoomEnded        EventType = "room_ended"
)

// RoomStats is derived from the registry and queue on every change and is
// never itself a source of truth.
type RoomStats struct {
	TotalParticipants int `json:"total_participants"`
	Speakers          int `json:"speakers_count"`
	Listeners         int `json:"listeners_count"`
	HandsRaised       int `json:"hand_raised_count"`
}

// QueueEntry is the read view of a hand raise, enriched with display data.
type QueueEntry struct {
	HandRaiseID domain.HandRaiseID `json:"hand_raise_id"`
	UserID      domain.UserID      `json:"user_id"`
	Username    string             `json:"username"`
	Role        domain.Role        `json:"role"`
	Level       int                `json:"level"`
	Position    int64              `json:"queue_position"`
	RaisedAt    time.Time          `json:"raised_at"`
}

// CurrentSpeaker is the spotlighted speaker, distinct from role=speaker.
type CurrentSpeaker struct {
	SpeechID  domain.HandRaiseID `json:"speech_id"`
	UserID    domain.UserID      `json:"user_id"`
	Username  string             `json:"username"`
	StartedAt time.Time          `json:"speech_started_at"`
}

// Snapshot is the self-sufficient full room view sent as `room_data` on
// every push connect and served to pull clients. No replay buffer is needed
// because a reconnect always starts from one of these.
type Snapshot struct {
	Room         domain.Room          `json:"room"`
	Participants []domain.Participant `json:"participants"`
	Queue        []QueueEntry         `json:"hand_raise_queue"`
	Speaker      *CurrentSpeaker      `json:"current_speaker,omitempty"`
	Chat         []domain.ChatMessage `json:"chat_messages"`
	LastSeq      int64                `json:"last_seq"`
	Stats        RoomStats            `json:"stats"`
}

// Event is one state delta fanned out to every push subscriber of a room,
// in emission order. Fields are sparse; Type decides which are set.
type Event struct {
	Type   EventType     `json:"type"`
	RoomID domain.RoomID `json:"room_id"`

	UserID   domain.UserID `json:"user_id,omitempty"`
	Username string        `json:"username,omitempty"`
	Role     domain.Role   `json:"role,omitempty"`

	Action string       `json:"action,omitempty"`
	Queue  []QueueEntry `json:"hand_raised,omitempty"`

	Message *domain.ChatMessage `json:"message,omitempty"`

	Speaker    *CurrentSpeaker `json:"current_speaker,omitempty"`
	IsSpeaking *bool           `json:"is_speaking,omitempty"`

	SpeechID        domain.HandRaiseID `json:"speech_id,omitempty"`
	SpeakerID       domain.UserID      `json:"speaker_id,omitempty"`
	DurationSeconds int64              `json:"duration_seconds,omitempty"`
	SupportType     domain.SupportType `json:"support_type,omitempty"`

	Stats *RoomStats `json:"stats,omitempty"`
}
