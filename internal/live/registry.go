package live

import (
	"time"

	"github.com/fomoclub/liveroom/internal/domain"
)

// registry is the per-room participant set. It is a pure data structure:
// privilege checks and event emission belong to the Session, which is the
// only writer, so no lock lives here.
type registry struct {
	byID  map[domain.UserID]*domain.Participant
	order []domain.UserID
}

func newRegistry() *registry {
	return &registry{byID: make(map[domain.UserID]*domain.Participant)}
}

func (r *registry) get(id domain.UserID) (*domain.Participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *registry) add(p *domain.Participant) {
	if _, ok := r.byID[p.UserID]; !ok {
		r.order = append(r.order, p.UserID)
	}
	r.byID[p.UserID] = p
}

func (r *registry) remove(id domain.UserID) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, uid := range r.order {
		if uid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) touch(id domain.UserID, conn domain.ConnState) {
	if p, ok := r.byID[id]; ok {
		p.Conn = conn
		p.LastSeen = time.Now().UTC()
	}
}

// list returns participants ordered by join time. Entries are copies so
// callers can hold them outside the session lock.
func (r *registry) list() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, *r.byID[uid])
	}
	return out
}

func (r *registry) len() int { return len(r.byID) }

func (r *registry) countByRole(role domain.Role) int {
	n := 0
	for _, p := range r.byID {
		if p.Role == role {
			n++
		}
	}
	return n
}
