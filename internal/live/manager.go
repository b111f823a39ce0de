package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/repository"
)

// Manager owns the room sessions. Its lock guards the map only; room
// operations run on the session's own lock, so rooms never block each other.
type Manager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Session
	repo  repository.Repository
	opts  Options
}

func NewManager(repo repository.Repository, opts Options) *Manager {
	return &Manager{
		rooms: make(map[domain.RoomID]*Session),
		repo:  repo,
		opts:  opts,
	}
}

// Create registers a new room with the given host and persists its record.
func (m *Manager) Create(ctx context.Context, hostID domain.UserID, title domain.RoomTitle) (*Session, error) {
	room := domain.Room{
		ID:        domain.RoomID(uuid.NewString()),
		Title:     title,
		HostID:    hostID,
		Status:    domain.RoomCreated,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.repo.SaveRoom(ctx, &room); err != nil {
		return nil, fmt.Errorf("failed to persist room: %w", err)
	}
	sess := NewSession(room, m.repo, m.opts)

	m.mu.Lock()
	m.rooms[room.ID] = sess
	m.mu.Unlock()

	log.Info().Str("module", "live.manager").Str("room", string(room.ID)).
		Str("host", string(hostID)).Msg("room created")
	return sess, nil
}

func (m *Manager) Get(id domain.RoomID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.rooms[id]
	return sess, ok
}

// List returns the records of all resident rooms that have not ended.
func (m *Manager) List() []domain.Room {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.rooms))
	for _, sess := range m.rooms {
		sessions = append(sessions, sess)
	}
	m.mu.RUnlock()

	out := make([]domain.Room, 0, len(sessions))
	for _, sess := range sessions {
		room := sess.Room()
		if room.Status != domain.RoomEnded {
			out = append(out, room)
		}
	}
	return out
}

// End closes a room but keeps it resident so late pull clients can still
// read the final snapshot. Evict removes it for good.
func (m *Manager) End(ctx context.Context, id domain.RoomID, actorID domain.UserID) error {
	sess, ok := m.Get(id)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return sess.End(ctx, actorID)
}

// Evict drops an ended room from memory.
func (m *Manager) Evict(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		delete(m.rooms, id)
		log.Info().Str("module", "live.manager").Str("room", string(id)).Msg("room evicted")
	}
}
