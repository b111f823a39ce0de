package live

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunPresenceSweeper periodically marks push participants that have been
// silent for longer than grace as disconnected. It only ever flips the
// presence flag: roles, queue positions and the speaker slot are untouched,
// so a brief network drop costs nobody their place.
func (m *Manager) RunPresenceSweeper(ctx context.Context, interval, grace time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "live.presence").Msg("presence sweeper stopped")
			return
		case <-ticker.C:
			m.sweep(grace)
		}
	}
}

func (m *Manager) sweep(grace time.Duration) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.rooms))
	for _, sess := range m.rooms {
		sessions = append(sessions, sess)
	}
	m.mu.RUnlock()

	for _, sess := range sessions {
		if n := sess.markStale(grace); n > 0 {
			log.Debug().Str("module", "live.presence").Str("room", string(sess.Room().ID)).
				Int("stale", n).Msg("marked stale participants")
		}
	}
}
