// Package httpapi is the pull transport plus the HTTP fallbacks for every
// mutating action, for clients whose push channel is down. Both transports
// drive the same room sessions, so transport choice never affects state.
package httpapi

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/config"
	"github.com/fomoclub/liveroom/internal/live"
	"github.com/fomoclub/liveroom/internal/relay"
	"github.com/fomoclub/liveroom/internal/transport/ws"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with a stable token used as the
// fallback identity for anonymous connections.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, rooms *live.Manager, relays *relay.Manager) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LiveRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	h := &Handlers{Rooms: rooms, Relays: relays, Cfg: cfg}
	wsCtl := ws.NewController(cfg, rooms)

	log.Info().Str("module", "httpapi").Msg("router setup")

	api := r.Group("/api/live")

	api.GET("/ws/:room_id", func(c *gin.Context) {
		wsCtl.HandleLive(ctx, c)
	})

	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms/:room_id/start", h.StartRoom)
	api.POST("/rooms/:room_id/end", h.EndRoom)

	api.GET("/rooms/:room_id/data", h.RoomData)
	api.GET("/rooms/:room_id/chat", h.ChatSince)
	api.GET("/rooms/:room_id/stats", h.RoomStats)

	api.POST("/rooms/:room_id/join", h.Join)
	api.POST("/rooms/:room_id/leave", h.Leave)
	api.POST("/rooms/:room_id/chat", h.SendChat)
	api.POST("/rooms/:room_id/hand", h.HandRaise)
	api.POST("/rooms/:room_id/approve-speaker", h.ApproveSpeaker)
	api.POST("/rooms/:room_id/end-speech", h.EndSpeech)

	api.POST("/speeches/:speech_id/support", h.SupportSpeech)

	api.POST("/rooms/:room_id/costream/start", h.StartCoStream)
	api.POST("/rooms/:room_id/costream/stop", h.StopCoStream)

	return r
}
