package live

import (
	"time"

	"github.com/fomoclub/liveroom/internal/domain"
)

// speech is one granted floor slot, identified by the hand raise that
// produced it (or a synthetic id for host-initiated speeches).
type speech struct {
	id        domain.HandRaiseID
	speakerID domain.UserID
	startedAt time.Time
	endedAt   time.Time

	supporters map[domain.UserID]domain.SupportType
}

func (s *speech) duration(now time.Time) time.Duration {
	end := s.endedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(s.startedAt)
}

// speakerSlot tracks the at-most-one active speech per room plus finished
// speeches, which stay resident so late support reactions still validate.
type speakerSlot struct {
	current  *speech
	speeches map[domain.HandRaiseID]*speech
}

func newSpeakerSlot() *speakerSlot {
	return &speakerSlot{speeches: make(map[domain.HandRaiseID]*speech)}
}

func (s *speakerSlot) start(id domain.HandRaiseID, speakerID domain.UserID) *speech {
	sp := &speech{
		id:         id,
		speakerID:  speakerID,
		startedAt:  time.Now().UTC(),
		supporters: make(map[domain.UserID]domain.SupportType),
	}
	s.current = sp
	s.speeches[id] = sp
	return sp
}

func (s *speakerSlot) end() *speech {
	sp := s.current
	if sp != nil {
		sp.endedAt = time.Now().UTC()
	}
	s.current = nil
	return sp
}

func (s *speakerSlot) get(id domain.HandRaiseID) (*speech, bool) {
	sp, ok := s.speeches[id]
	return sp, ok
}

// support records a one-shot reaction. It validates but does not mutate on
// failure, so the session keeps its all-or-nothing guarantee.
func (s *speakerSlot) support(id domain.HandRaiseID, supporter domain.UserID, t domain.SupportType) (*speech, error) {
	sp, ok := s.speeches[id]
	if !ok {
		return nil, domain.ErrSpeechNotFound
	}
	if sp.speakerID == supporter {
		return nil, domain.ErrSelfSupportForbidden
	}
	if _, dup := sp.supporters[supporter]; dup {
		return nil, domain.ErrAlreadySupported
	}
	sp.supporters[supporter] = t
	return sp, nil
}
