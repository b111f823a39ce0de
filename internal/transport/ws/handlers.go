package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
)

// Mutations arriving on the push channel hit the same Session the pull API
// does, so both transports observe identical state right after. Results
// reach the caller through the room fan-out; only rejections are answered
// directly, as warning frames.

func (ctl *Controller) handleChat(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad chat payload")
		return
	}
	if !ctl.limiter.Allow(userID) {
		ctl.sendWarning(c, domain.ErrRateLimited)
		return
	}
	if _, err := sess.AppendChat(ctx, userID, p.Message); err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleHandRaise(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var p struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad hand_raise payload")
		return
	}
	var err error
	switch p.Action {
	case "lower":
		err = sess.Lower(ctx, userID, userID)
	default: // "raise"
		_, err = sess.Raise(ctx, userID)
	}
	if err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleApprove(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var p struct {
		HandRaiseID string `json:"hand_raise_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad approve payload")
		return
	}
	if _, err := sess.Approve(ctx, userID, domain.HandRaiseID(p.HandRaiseID)); err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleEndSpeech(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var p struct {
		SpeechID string `json:"speech_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad end_speech payload")
		return
	}
	if err := sess.EndSpeech(ctx, userID, domain.HandRaiseID(p.SpeechID)); err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleSpeaking(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var p struct {
		IsSpeaking bool `json:"is_speaking"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad speaking_status payload")
		return
	}
	if err := sess.SetSpeaking(ctx, userID, p.IsSpeaking); err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleSetRole(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte, role domain.Role) {
	var p struct {
		TargetUserID string `json:"target_user_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad role payload")
		return
	}
	if err := sess.SetRole(ctx, userID, domain.UserID(p.TargetUserID), role); err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleSupport(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn, data []byte) {
	var p struct {
		SpeechID    string `json:"speech_id"`
		SupportType string `json:"support_type"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad support payload")
		return
	}
	if _, err := sess.Support(ctx, userID, domain.HandRaiseID(p.SpeechID), domain.SupportType(p.SupportType)); err != nil {
		ctl.sendWarning(c, err)
	}
}

func (ctl *Controller) handleLeave(ctx context.Context, sess *live.Session, userID domain.UserID, c *wsConn) {
	if err := sess.Leave(ctx, userID); err != nil {
		ctl.sendWarning(c, err)
		return
	}
	ctl.sendJSON(c, ackFrame{Type: "left"})
}
