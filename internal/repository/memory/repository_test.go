package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fomoclub/liveroom/internal/domain"
)

func TestRepository_SaveAndGetRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	room := &domain.Room{
		ID:        "room-1",
		Title:     "Demo",
		HostID:    "host-1",
		Status:    domain.RoomActive,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveRoom(ctx, room))

	got, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, room.Title, got.Title)

	// the repository hands out copies
	got.Title = "mutated"
	again, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomTitle("Demo"), again.Title)

	_, err = repo.GetRoom(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRepository_ListActiveRooms(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.SaveRoom(ctx, &domain.Room{ID: "a", Status: domain.RoomActive}))
	require.NoError(t, repo.SaveRoom(ctx, &domain.Room{ID: "b", Status: domain.RoomEnded}))
	require.NoError(t, repo.SaveRoom(ctx, &domain.Room{ID: "c", Status: domain.RoomCreated}))

	rooms, err := repo.ListActiveRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	for _, room := range rooms {
		assert.NotEqual(t, domain.RoomEnded, room.Status)
	}
}

func TestRepository_ChatSince(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	for i := int64(1); i <= 5; i++ {
		err := repo.AppendChat(ctx, "room-1", domain.ChatMessage{Seq: i, SenderID: "u", Text: "m"})
		require.NoError(t, err)
	}

	msgs, err := repo.ChatSince(ctx, "room-1", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(4), msgs[0].Seq)
	assert.Equal(t, int64(5), msgs[1].Seq)

	all, err := repo.ChatSince(ctx, "room-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	past, err := repo.ChatSince(ctx, "room-1", 99)
	require.NoError(t, err)
	assert.Empty(t, past)

	n, err := repo.CountChat(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestRepository_Supports(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	sup := &domain.SpeechSupport{
		ID:          "s-1",
		SpeechID:    "speech-1",
		RoomID:      "room-1",
		SpeakerID:   "alice",
		SupporterID: "bob",
		Type:        domain.SupportValuable,
		SentAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSupport(ctx, sup))

	got, err := repo.ListSupporters(ctx, "speech-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.UserID("bob"), got[0].SupporterID)
	assert.Equal(t, domain.SupportValuable, got[0].Type)

	none, err := repo.ListSupporters(ctx, "other-speech")
	require.NoError(t, err)
	assert.Empty(t, none)
}
