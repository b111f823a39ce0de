package domain

import "time"

type SupportType string

const (
	SupportValuable   SupportType = "valuable"
	SupportInsightful SupportType = "insightful"
	SupportHelpful    SupportType = "helpful"
)

func (t SupportType) Valid() bool {
	switch t {
	case SupportValuable, SupportInsightful, SupportHelpful:
		return true
	}
	return false
}

// SpeechSupport is a one-shot peer reaction to a finished speech.
// At most one per (speech, supporter) pair; never from the speaker.
type SpeechSupport struct {
	ID          string      `json:"support_id"`
	SpeechID    HandRaiseID `json:"speech_id"`
	RoomID      RoomID      `json:"room_id"`
	SpeakerID   UserID      `json:"speaker_id"`
	SupporterID UserID      `json:"supporter_id"`
	Type        SupportType `json:"support_type"`
	SentAt      time.Time   `json:"supported_at"`
}
