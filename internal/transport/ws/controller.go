// Package ws is the push gateway: one long-lived duplex connection per
// participant, a full snapshot on connect, then room events in emission
// order. A reconnect is just a fresh join plus snapshot resend; the
// snapshot is self-sufficient, so no replay buffer exists.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/config"
	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Rooms   *live.Manager
	cfg     *config.Config
	limiter *RateLimiter
}

func NewController(cfg *config.Config, rooms *live.Manager) *Controller {
	return &Controller{
		Rooms:   rooms,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateWindow),
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleLive serves GET /api/live/ws/:room_id. Query params identify the
// participant; identity itself is an external collaborator.
func (ctl *Controller) HandleLive(ctx context.Context, c *gin.Context) {
	roomID := domain.RoomID(c.Param("room_id"))
	sess, ok := ctl.Rooms.Get(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	userID := domain.UserID(c.Query("user_id"))
	if userID == "" {
		userID = domain.UserID(c.GetString("client_token"))
	}
	username := c.Query("username")
	if username == "" {
		username = "Guest"
	}

	log.Info().Str("module", "ws").Str("room", string(roomID)).
		Str("user", string(userID)).Msg("new push connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &wsConn{
		conn: sock,
		send: make(chan []byte, 32),
	}

	// Connect is a join: idempotent, so a reconnect keeps role and queue
	// position and only refreshes presence.
	if _, err := sess.Join(ctx, userID, username, domain.ConnPush); err != nil {
		// pumps are not running yet; write the rejection synchronously
		if data, merr := json.Marshal(warningFrame(err)); merr == nil {
			_ = sock.WriteMessage(websocket.TextMessage, data)
		}
		conn.Close()
		return
	}

	subID, events := sess.Subscribe()
	connCtx, cancel := context.WithCancel(ctx)

	cleanup := func() {
		cancel()
		sess.Unsubscribe(subID)
		sess.MarkConn(userID, domain.ConnDisconnected)
		conn.Close()
	}

	ctl.sendJSON(conn, snapshotFrame(sess.Snapshot()))

	go ctl.writePump(connCtx, conn)
	go ctl.eventPump(connCtx, conn, events, cleanup)
	go ctl.readPump(connCtx, sess, userID, conn, cleanup)
}

// eventPump serializes session events onto the socket. A client that
// cannot drain its buffer is closed and expected to reconnect with backoff,
// at which point the fresh snapshot makes it whole again.
func (ctl *Controller) eventPump(ctx context.Context, conn *wsConn, events <-chan live.Event, cleanup func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("marshal event")
				continue
			}
			if err := conn.TrySend(data); err != nil {
				log.Warn().Err(err).Str("module", "ws").Msg("push send failed, dropping connection")
				cleanup()
				return
			}
			if ev.Type == live.EventRoomEnded {
				cleanup()
				return
			}
		}
	}
}

func (ctl *Controller) sendJSON(conn *wsConn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(data)
}

// sendWarning reports a rejected action to the caller only. Privilege and
// idempotency rejections are warnings, not connectivity failures.
func (ctl *Controller) sendWarning(conn *wsConn, err error) {
	ctl.sendJSON(conn, warningFrame(err))
}
