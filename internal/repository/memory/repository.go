// Package memory provides an in-memory implementation of the repository
// interface, used for tests and single-node deployments.
package memory

import (
	"context"
	"sync"

	"github.com/fomoclub/liveroom/internal/domain"
)

// Repository implements the repository interface with in-memory storage.
type Repository struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]*domain.Room
	chat     map[domain.RoomID][]domain.ChatMessage
	supports map[domain.HandRaiseID][]domain.SpeechSupport
}

// NewRepository creates a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		rooms:    make(map[domain.RoomID]*domain.Room),
		chat:     make(map[domain.RoomID][]domain.ChatMessage),
		supports: make(map[domain.HandRaiseID][]domain.SpeechSupport),
	}
}

func (r *Repository) SaveRoom(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *room
	r.rooms[room.ID] = &cp
	return nil
}

func (r *Repository) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *Repository) ListActiveRooms(ctx context.Context) ([]*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.Status == domain.RoomEnded {
			continue
		}
		cp := *room
		out = append(out, &cp)
	}
	return out, nil
}

func (r *Repository) AppendChat(ctx context.Context, id domain.RoomID, msg domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat[id] = append(r.chat[id], msg)
	return nil
}

func (r *Repository) ChatSince(ctx context.Context, id domain.RoomID, seq int64) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log := r.chat[id]
	if seq < 0 {
		seq = 0
	}
	if seq >= int64(len(log)) {
		return []domain.ChatMessage{}, nil
	}
	out := make([]domain.ChatMessage, int64(len(log))-seq)
	copy(out, log[seq:])
	return out, nil
}

func (r *Repository) CountChat(ctx context.Context, id domain.RoomID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.chat[id])), nil
}

func (r *Repository) SaveSupport(ctx context.Context, sup *domain.SpeechSupport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supports[sup.SpeechID] = append(r.supports[sup.SpeechID], *sup)
	return nil
}

func (r *Repository) ListSupporters(ctx context.Context, speechID domain.HandRaiseID) ([]domain.SpeechSupport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SpeechSupport, len(r.supports[speechID]))
	copy(out, r.supports[speechID])
	return out, nil
}
