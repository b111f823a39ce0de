package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, cleanup func()) {
	defer func() {
		log.Info().Str("module", "ws").Str("user", string(userID)).Msg("readPump closing")
		cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				// abrupt disconnect: presence flips in cleanup, nothing
				// else changes; the client reconnects with backoff
				log.Info().Err(err).Str("module", "ws").Str("user", string(userID)).Msg("readPump read error")
				return
			}
			// any inbound traffic is proof of life
			sess.MarkConn(userID, domain.ConnPush)
			ctl.dispatch(ctx, sess, userID, c, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case "ping":
		ctl.sendJSON(c, ackFrame{Type: "pong"})
	case "chat_message":
		ctl.handleChat(ctx, sess, userID, c, data)
	case "hand_raise":
		ctl.handleHandRaise(ctx, sess, userID, c, data)
	case "approve_speaker":
		ctl.handleApprove(ctx, sess, userID, c, data)
	case "end_speech":
		ctl.handleEndSpeech(ctx, sess, userID, c, data)
	case "speaking_status":
		ctl.handleSpeaking(ctx, sess, userID, c, data)
	case "promote_user":
		ctl.handleSetRole(ctx, sess, userID, c, data, domain.RoleSpeaker)
	case "demote_user":
		ctl.handleSetRole(ctx, sess, userID, c, data, domain.RoleListener)
	case "support_speech":
		ctl.handleSupport(ctx, sess, userID, c, data)
	case "leave":
		ctl.handleLeave(ctx, sess, userID, c)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown message")
	}
}
