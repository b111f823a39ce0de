package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/config"
	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
	"github.com/fomoclub/liveroom/internal/relay"
	"github.com/fomoclub/liveroom/internal/transport/apierror"
)

type Handlers struct {
	Rooms  *live.Manager
	Relays *relay.Manager
	Cfg    *config.Config
}

func (h *Handlers) fail(c *gin.Context, err error) {
	c.JSON(apierror.HTTPStatus(err), gin.H{
		"code":  apierror.Code(err),
		"error": err.Error(),
	})
}

func (h *Handlers) session(c *gin.Context) (*live.Session, bool) {
	sess, ok := h.Rooms.Get(domain.RoomID(c.Param("room_id")))
	if !ok {
		h.fail(c, domain.ErrRoomNotFound)
		return nil, false
	}
	return sess, true
}

// CreateRoom registers a room with the caller as host.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req struct {
		HostID string `json:"host_id" binding:"required"`
		Title  string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.Rooms.Create(c.Request.Context(), domain.UserID(req.HostID), domain.RoomTitle(req.Title))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.Room())
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Rooms.List()})
}

func (h *Handlers) StartRoom(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.Start(c.Request.Context(), domain.UserID(req.UserID)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started", "room_id": c.Param("room_id")})
}

func (h *Handlers) EndRoom(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.End(c.Request.Context(), domain.UserID(req.UserID)); err != nil {
		h.fail(c, err)
		return
	}
	// the relay is an observer: stop it quietly if one is still bound
	if n, ok := h.Relays.Stop(sess.Room().ID); ok {
		log.Info().Str("module", "httpapi").Int64("forwarded", n).Msg("costream stopped with room")
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended", "room_id": c.Param("room_id")})
}

// RoomData is the pull snapshot. With ?since_seq it degrades to a chat
// delta so bounded-interval pollers do not refetch history.
func (h *Handlers) RoomData(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if cursor, present := c.GetQuery("since_seq"); present {
		seq, err := parseSeq(cursor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since_seq"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"messages": sess.ChatSince(seq),
			"stats":    sess.Stats(),
		})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handlers) ChatSince(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	seq, err := parseSeq(c.DefaultQuery("since_seq", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since_seq"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": sess.ChatSince(seq)})
}

func (h *Handlers) RoomStats(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Stats())
}

func (h *Handlers) Join(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := sess.Join(c.Request.Context(), domain.UserID(req.UserID), req.Username, domain.ConnPull)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "joined", "participant": p, "stats": sess.Stats()})
}

func (h *Handlers) Leave(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.Leave(c.Request.Context(), domain.UserID(req.UserID)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

func (h *Handlers) SendChat(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UserID  string `json:"user_id" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := sess.AppendChat(c.Request.Context(), domain.UserID(req.UserID), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (h *Handlers) HandRaise(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uid := domain.UserID(req.UserID)
	switch req.Action {
	case "raise":
		entry, err := sess.Raise(c.Request.Context(), uid)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"action":         "raise",
			"hand_raise_id":  entry.HandRaiseID,
			"queue_position": entry.Position,
			"stats":          sess.Stats(),
		})
	case "lower":
		if err := sess.Lower(c.Request.Context(), uid, uid); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "action": "lower", "stats": sess.Stats()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be raise or lower"})
	}
}

// ApproveSpeaker atomically removes the queue entry and promotes its owner;
// the underlying session guarantees no intermediate state is observable.
func (h *Handlers) ApproveSpeaker(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		HandRaiseID string `json:"hand_raise_id" binding:"required"`
		ModeratorID string `json:"moderator_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	speaker, err := sess.Approve(c.Request.Context(), domain.UserID(req.ModeratorID), domain.HandRaiseID(req.HandRaiseID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "current_speaker": speaker})
}

func (h *Handlers) EndSpeech(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		SpeechID    string `json:"speech_id"`
		ModeratorID string `json:"moderator_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.EndSpeech(c.Request.Context(), domain.UserID(req.ModeratorID), domain.HandRaiseID(req.SpeechID)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) SupportSpeech(c *gin.Context) {
	var req struct {
		RoomID      string `json:"room_id" binding:"required"`
		SupporterID string `json:"supporter_id" binding:"required"`
		SupportType string `json:"support_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, ok := h.Rooms.Get(domain.RoomID(req.RoomID))
	if !ok {
		h.fail(c, domain.ErrRoomNotFound)
		return
	}
	sup, err := sess.Support(
		c.Request.Context(),
		domain.UserID(req.SupporterID),
		domain.HandRaiseID(c.Param("speech_id")),
		domain.SupportType(req.SupportType),
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "support": sup})
}

func (h *Handlers) StartCoStream(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dest := relay.NewWebhookDestination(req.Destination, h.Cfg.RelayTimeout)
	if err := h.Relays.Start(sess, dest); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room_id": c.Param("room_id")})
}

func (h *Handlers) StopCoStream(c *gin.Context) {
	roomID := domain.RoomID(c.Param("room_id"))
	forwarded, ok := h.Relays.Stop(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active co-stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages_forwarded": forwarded})
}
