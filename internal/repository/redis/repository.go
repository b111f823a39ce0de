// Package redis provides a Redis/Valkey implementation of the repository
// interface. Room records are JSON values, chat logs are Redis lists so the
// gap-free sequence maps directly onto list offsets.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fomoclub/liveroom/internal/domain"
)

// Repository implements the repository interface with Redis storage.
type Repository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRepository creates a new Redis repository and verifies the connection.
func NewRepository(addr, password string, db int, keyPrefix string) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{client: client, keyPrefix: keyPrefix}, nil
}

// NewFromClient wraps an existing client; used by tests with miniredis.
func NewFromClient(client *redis.Client, keyPrefix string) *Repository {
	return &Repository{client: client, keyPrefix: keyPrefix}
}

// Close closes the Redis connection.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) roomKey(id domain.RoomID) string {
	return fmt.Sprintf("%srooms:%s", r.keyPrefix, id)
}

func (r *Repository) roomSetKey() string {
	return r.keyPrefix + "rooms"
}

func (r *Repository) chatKey(id domain.RoomID) string {
	return fmt.Sprintf("%srooms:%s:chat", r.keyPrefix, id)
}

func (r *Repository) supportKey(speechID domain.HandRaiseID) string {
	return fmt.Sprintf("%sspeeches:%s:supports", r.keyPrefix, speechID)
}

func (r *Repository) SaveRoom(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.roomKey(room.ID), data, 0)
	pipe.SAdd(ctx, r.roomSetKey(), string(room.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (r *Repository) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	data, err := r.client.Get(ctx, r.roomKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

func (r *Repository) ListActiveRooms(ctx context.Context) ([]*domain.Room, error) {
	ids, err := r.client.SMembers(ctx, r.roomSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	out := make([]*domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := r.GetRoom(ctx, domain.RoomID(id))
		if err != nil {
			continue // room key expired or gone; skip stale index entry
		}
		if room.Status == domain.RoomEnded {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

func (r *Repository) AppendChat(ctx context.Context, id domain.RoomID, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.RPush(ctx, r.chatKey(id), data).Err(); err != nil {
		return fmt.Errorf("failed to append chat: %w", err)
	}
	return nil
}

func (r *Repository) ChatSince(ctx context.Context, id domain.RoomID, seq int64) ([]domain.ChatMessage, error) {
	if seq < 0 {
		seq = 0
	}
	// Message seq N lives at list index N-1, so everything after cursor
	// `seq` is the range [seq, -1].
	raw, err := r.client.LRange(ctx, r.chatKey(id), seq, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat: %w", err)
	}
	out := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *Repository) CountChat(ctx context.Context, id domain.RoomID) (int64, error) {
	n, err := r.client.LLen(ctx, r.chatKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count chat: %w", err)
	}
	return n, nil
}

func (r *Repository) SaveSupport(ctx context.Context, sup *domain.SpeechSupport) error {
	data, err := json.Marshal(sup)
	if err != nil {
		return fmt.Errorf("failed to marshal support: %w", err)
	}
	if err := r.client.RPush(ctx, r.supportKey(sup.SpeechID), data).Err(); err != nil {
		return fmt.Errorf("failed to save support: %w", err)
	}
	return nil
}

func (r *Repository) ListSupporters(ctx context.Context, speechID domain.HandRaiseID) ([]domain.SpeechSupport, error) {
	raw, err := r.client.LRange(ctx, r.supportKey(speechID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list supporters: %w", err)
	}
	out := make([]domain.SpeechSupport, 0, len(raw))
	for _, item := range raw {
		var sup domain.SpeechSupport
		if err := json.Unmarshal([]byte(item), &sup); err != nil {
			return nil, fmt.Errorf("failed to unmarshal support: %w", err)
		}
		out = append(out, sup)
	}
	return out, nil
}
