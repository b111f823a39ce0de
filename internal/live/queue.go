package live

import (
	"fmt"
	"time"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/google/uuid"
)

// handQueue is the FIFO hand-raise queue. Positions come from a monotonic
// counter, so removing an entry never renumbers the others. Like registry,
// it is lock-free and owned by the session's single writer.
type handQueue struct {
	nextPos int64
	entries []*domain.HandRaise
	byUser  map[domain.UserID]*domain.HandRaise
	limit   int
}

func newHandQueue(limit int) *handQueue {
	return &handQueue{byUser: make(map[domain.UserID]*domain.HandRaise), limit: limit}
}

func (q *handQueue) raise(uid domain.UserID, level int) (*domain.HandRaise, error) {
	if _, ok := q.byUser[uid]; ok {
		return nil, domain.ErrAlreadyRaised
	}
	if q.limit > 0 && len(q.entries) >= q.limit {
		return nil, fmt.Errorf("%w: queue is full (max %d)", domain.ErrInvalidTransition, q.limit)
	}
	q.nextPos++
	hr := &domain.HandRaise{
		ID:       domain.HandRaiseID(uuid.NewString()),
		UserID:   uid,
		Position: q.nextPos,
		Level:    level,
		RaisedAt: time.Now().UTC(),
	}
	q.entries = append(q.entries, hr)
	q.byUser[uid] = hr
	return hr, nil
}

func (q *handQueue) lower(uid domain.UserID) (*domain.HandRaise, bool) {
	hr, ok := q.byUser[uid]
	if !ok {
		return nil, false
	}
	q.removeEntry(hr)
	return hr, true
}

func (q *handQueue) byID(id domain.HandRaiseID) (*domain.HandRaise, bool) {
	for _, hr := range q.entries {
		if hr.ID == id {
			return hr, true
		}
	}
	return nil, false
}

func (q *handQueue) removeEntry(hr *domain.HandRaise) {
	delete(q.byUser, hr.UserID)
	for i, e := range q.entries {
		if e.ID == hr.ID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
}

func (q *handQueue) peek() (*domain.HandRaise, bool) {
	if len(q.entries) == 0 {
		return nil, false
	}
	return q.entries[0], true
}

// list returns entries in raise order as copies.
func (q *handQueue) list() []domain.HandRaise {
	out := make([]domain.HandRaise, 0, len(q.entries))
	for _, hr := range q.entries {
		out = append(out, *hr)
	}
	return out
}

func (q *handQueue) len() int { return len(q.entries) }
