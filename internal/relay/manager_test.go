package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
	"github.com/fomoclub/liveroom/internal/repository/memory"
)

// fakeDestination records every delivered line and can be told to fail.
type fakeDestination struct {
	mu       sync.Mutex
	sent     []string
	attempts int
	fail     bool
}

func (d *fakeDestination) Send(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.fail {
		return errors.New("destination unavailable")
	}
	d.sent = append(d.sent, text)
	return nil
}

func (d *fakeDestination) tried() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *fakeDestination) lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.sent))
	copy(out, d.sent)
	return out
}

func newRelayedSession(t *testing.T) *live.Session {
	t.Helper()
	ctx := context.Background()
	rooms := live.NewManager(memory.NewRepository(), live.Options{})
	sess, err := rooms.Create(ctx, "host-1", "Relayed room")
	require.NoError(t, err)
	require.NoError(t, sess.Start(ctx, "host-1"))
	_, err = sess.Join(ctx, "host-1", "Host", domain.ConnPush)
	require.NoError(t, err)
	return sess
}

func TestManager_ForwardsChatMessages(t *testing.T) {
	ctx := context.Background()
	sess := newRelayedSession(t)
	relays := NewManager(ctx)
	dest := &fakeDestination{}

	require.NoError(t, relays.Start(sess, dest))
	assert.True(t, relays.Active(sess.Room().ID))

	_, err := sess.AppendChat(ctx, "host-1", "hello stream")
	require.NoError(t, err)

	// forwarding is asynchronous
	assert.Eventually(t, func() bool {
		return len(dest.lines()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, dest.lines()[0], "hello stream")
	assert.Contains(t, dest.lines()[0], "Host")
}

func TestManager_SecondStartRejected(t *testing.T) {
	ctx := context.Background()
	sess := newRelayedSession(t)
	relays := NewManager(ctx)

	require.NoError(t, relays.Start(sess, &fakeDestination{}))
	err := relays.Start(sess, &fakeDestination{})
	assert.ErrorIs(t, err, domain.ErrAlreadyStreaming)
}

func TestManager_StopReportsForwardedCount(t *testing.T) {
	ctx := context.Background()
	sess := newRelayedSession(t)
	relays := NewManager(ctx)
	dest := &fakeDestination{}

	require.NoError(t, relays.Start(sess, dest))

	for i := 0; i < 3; i++ {
		_, err := sess.AppendChat(ctx, "host-1", "msg")
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		return len(dest.lines()) == 3
	}, time.Second, 10*time.Millisecond)

	n, ok := relays.Stop(sess.Room().ID)
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
	assert.False(t, relays.Active(sess.Room().ID))

	_, ok = relays.Stop(sess.Room().ID)
	assert.False(t, ok)
}

func TestManager_DeliveryFailureDoesNotAffectRoom(t *testing.T) {
	ctx := context.Background()
	sess := newRelayedSession(t)
	relays := NewManager(ctx)
	dest := &fakeDestination{fail: true}

	require.NoError(t, relays.Start(sess, dest))

	msg, err := sess.AppendChat(ctx, "host-1", "still works")
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.Seq)

	require.Eventually(t, func() bool {
		return dest.tried() == 1
	}, time.Second, 10*time.Millisecond)

	// the failed delivery counts as dropped, never as forwarded
	n, ok := relays.Stop(sess.Room().ID)
	require.True(t, ok)
	assert.Equal(t, int64(0), n)
}

func TestFormatEvent_RelevantTypesOnly(t *testing.T) {
	msg := domain.ChatMessage{SenderName: "Alice", Text: "hi"}
	text, ok := formatEvent(live.Event{Type: live.EventChatMessage, Message: &msg})
	require.True(t, ok)
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "hi")

	_, ok = formatEvent(live.Event{Type: live.EventChatMessage})
	assert.False(t, ok, "chat event without payload is skipped")

	text, ok = formatEvent(live.Event{Type: live.EventUserPromoted, Username: "Bob"})
	require.True(t, ok)
	assert.Contains(t, text, "Bob")

	_, ok = formatEvent(live.Event{Type: live.EventUserJoined, Username: "Bob"})
	assert.False(t, ok, "presence noise is not mirrored")

	_, ok = formatEvent(live.Event{Type: live.EventRoomEnded})
	assert.True(t, ok)
}
