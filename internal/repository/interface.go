// Package repository defines storage for room records and chat logs.
// Registry and queue state is deliberately not persisted: it is meaningless
// once a room ends.
package repository

import (
	"context"

	"github.com/fomoclub/liveroom/internal/domain"
)

type Repository interface {
	// SaveRoom upserts the room record (status, host, timestamps).
	SaveRoom(ctx context.Context, room *domain.Room) error
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	ListActiveRooms(ctx context.Context) ([]*domain.Room, error)

	// AppendChat stores one message on the room's append-only log.
	AppendChat(ctx context.Context, id domain.RoomID, msg domain.ChatMessage) error
	// ChatSince returns messages with seq > the given cursor, in order.
	ChatSince(ctx context.Context, id domain.RoomID, seq int64) ([]domain.ChatMessage, error)
	CountChat(ctx context.Context, id domain.RoomID) (int64, error)

	SaveSupport(ctx context.Context, sup *domain.SpeechSupport) error
	ListSupporters(ctx context.Context, speechID domain.HandRaiseID) ([]domain.SpeechSupport, error)
}
