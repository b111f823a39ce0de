package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fomoclub/liveroom/internal/config"
	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
	"github.com/fomoclub/liveroom/internal/repository/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:           "release",
		ReadLimit:      32768,
		PingPeriod:     54 * time.Second,
		ChatRateLimit:  100,
		ChatRateWindow: 10 * time.Second,
	}
}

type wsFixture struct {
	server *httptest.Server
	rooms  *live.Manager
	sess   *live.Session
}

func newWsFixture(t *testing.T) *wsFixture {
	return newWsFixtureCfg(t, testConfig())
}

func newWsFixtureCfg(t *testing.T, cfg *config.Config) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	rooms := live.NewManager(memory.NewRepository(), live.Options{})
	sess, err := rooms.Create(ctx, "host-1", "Push test")
	require.NoError(t, err)
	require.NoError(t, sess.Start(ctx, "host-1"))
	_, err = sess.Join(ctx, "host-1", "Host", domain.ConnPull)
	require.NoError(t, err)

	ctl := NewController(cfg, rooms)
	r := gin.New()
	r.GET("/api/live/ws/:room_id", func(c *gin.Context) {
		ctl.HandleLive(ctx, c)
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &wsFixture{server: server, rooms: rooms, sess: sess}
}

func (f *wsFixture) dial(t *testing.T, userID, username string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") +
		"/api/live/ws/" + string(f.sess.Room().ID) +
		"?user_id=" + userID + "&username=" + username
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// readUntil skips frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		frame := readFrame(t, conn)
		if frame["type"] == frameType {
			return frame
		}
	}
	t.Fatalf("no %s frame received", frameType)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(payload))
}

func TestHandleLive_SnapshotOnConnect(t *testing.T) {
	f := newWsFixture(t)

	conn := f.dial(t, "alice", "Alice")

	frame := readFrame(t, conn)
	require.Equal(t, "room_data", frame["type"])

	data := frame["data"].(map[string]any)
	room := data["room"].(map[string]any)
	assert.Equal(t, string(f.sess.Room().ID), room["id"])
	assert.Equal(t, "active", room["status"])
	// host plus the fresh connection
	assert.Len(t, data["participants"], 2)
}

func TestHandleLive_UnknownRoomRejectedBeforeUpgrade(t *testing.T) {
	f := newWsFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/live/ws/no-such-room?user_id=alice"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleLive_ChatRoundTrip(t *testing.T) {
	f := newWsFixture(t)

	conn := f.dial(t, "alice", "Alice")
	readUntil(t, conn, "room_data")

	send(t, conn, map[string]any{"type": "chat_message", "message": "hello push"})

	frame := readUntil(t, conn, "chat_message")
	msg := frame["message"].(map[string]any)
	assert.Equal(t, "hello push", msg["message"])
	assert.Equal(t, "Alice", msg["username"])
	assert.Equal(t, float64(1), msg["seq"])

	// the pull side observes the same message
	assert.Len(t, f.sess.ChatSince(0), 1)
}

func TestHandleLive_HandRaiseAndWarning(t *testing.T) {
	f := newWsFixture(t)

	conn := f.dial(t, "alice", "Alice")
	readUntil(t, conn, "room_data")

	send(t, conn, map[string]any{"type": "hand_raise", "action": "raise"})
	frame := readUntil(t, conn, "hand_raised_update")
	queue := frame["hand_raised"].([]any)
	require.Len(t, queue, 1)
	assert.Equal(t, "alice", queue[0].(map[string]any)["user_id"])

	// a second raise comes back as a warning to this caller only
	send(t, conn, map[string]any{"type": "hand_raise", "action": "raise"})
	warning := readUntil(t, conn, "warning")
	assert.Equal(t, "already_raised", warning["code"])
}

func TestHandleLive_ApproveRequiresModerator(t *testing.T) {
	f := newWsFixture(t)
	ctx := context.Background()

	conn := f.dial(t, "alice", "Alice")
	readUntil(t, conn, "room_data")

	entry, err := f.sess.Raise(ctx, "alice")
	require.NoError(t, err)
	readUntil(t, conn, "hand_raised_update")

	send(t, conn, map[string]any{"type": "approve_speaker", "hand_raise_id": string(entry.HandRaiseID)})
	warning := readUntil(t, conn, "warning")
	assert.Equal(t, "unauthorized", warning["code"])
}

func TestHandleLive_ChatRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.ChatRateLimit = 1
	f := newWsFixtureCfg(t, cfg)

	conn := f.dial(t, "alice", "Alice")
	readUntil(t, conn, "room_data")

	send(t, conn, map[string]any{"type": "chat_message", "message": "first"})
	readUntil(t, conn, "chat_message")

	// throttling is its own code, distinct from state-machine rejections
	send(t, conn, map[string]any{"type": "chat_message", "message": "second"})
	warning := readUntil(t, conn, "warning")
	assert.Equal(t, "rate_limited", warning["code"])

	assert.Len(t, f.sess.ChatSince(0), 1)
}

func TestHandleLive_PingPong(t *testing.T) {
	f := newWsFixture(t)

	conn := f.dial(t, "alice", "Alice")
	readUntil(t, conn, "room_data")

	send(t, conn, map[string]any{"type": "ping"})
	readUntil(t, conn, "pong")
}

func TestHandleLive_LeaveAcked(t *testing.T) {
	f := newWsFixture(t)

	conn := f.dial(t, "alice", "Alice")
	readUntil(t, conn, "room_data")

	send(t, conn, map[string]any{"type": "leave"})
	readUntil(t, conn, "left")

	assert.Equal(t, 1, f.sess.Stats().TotalParticipants)
}
