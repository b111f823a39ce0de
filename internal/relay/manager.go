// Package relay mirrors selected room events to an external messaging
// destination while a co-stream is active. It is an observer of the room,
// never a dependency: delivery failures are logged and counted, and room
// correctness is unaffected.
package relay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/live"
)

type costream struct {
	cancel    context.CancelFunc
	dest      Destination
	forwarded atomic.Int64
	dropped   atomic.Int64
}

// Manager tracks at most one co-stream per room. Forwarding goroutines
// descend from the manager's base context, not the request that started
// them, so a co-stream outlives its start call.
type Manager struct {
	baseCtx context.Context
	mu      sync.RWMutex
	streams map[domain.RoomID]*costream
}

func NewManager(ctx context.Context) *Manager {
	return &Manager{baseCtx: ctx, streams: make(map[domain.RoomID]*costream)}
}

// Start binds a destination to the room and begins mirroring its chat and
// speaker-change events. Fails with ErrAlreadyStreaming when bound.
func (m *Manager) Start(sess *live.Session, dest Destination) error {
	roomID := sess.Room().ID

	m.mu.Lock()
	if _, ok := m.streams[roomID]; ok {
		m.mu.Unlock()
		return domain.ErrAlreadyStreaming
	}
	streamCtx, cancel := context.WithCancel(m.baseCtx)
	cs := &costream{cancel: cancel, dest: dest}
	m.streams[roomID] = cs
	m.mu.Unlock()

	subID, events := sess.Subscribe()
	logger := log.With().Str("module", "relay").Str("room", string(roomID)).Logger()
	logger.Info().Msg("co-stream started")

	go func() {
		defer sess.Unsubscribe(subID)
		for {
			select {
			case <-streamCtx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				text, relevant := formatEvent(ev)
				if !relevant {
					continue
				}
				if err := cs.dest.Send(streamCtx, text); err != nil {
					// best-effort: the relay never surfaces errors to the room
					cs.dropped.Add(1)
					logger.Warn().Err(err).Msg("forward failed")
					continue
				}
				cs.forwarded.Add(1)
			}
		}
	}()
	return nil
}

// Stop unbinds the room and reports how many messages were forwarded.
func (m *Manager) Stop(roomID domain.RoomID) (int64, bool) {
	m.mu.Lock()
	cs, ok := m.streams[roomID]
	if ok {
		delete(m.streams, roomID)
	}
	m.mu.Unlock()
	if !ok {
		return 0, false
	}
	cs.cancel()
	n := cs.forwarded.Load()
	log.Info().Str("module", "relay").Str("room", string(roomID)).
		Int64("forwarded", n).Int64("dropped", cs.dropped.Load()).Msg("co-stream stopped")
	return n, true
}

// Active reports whether a co-stream is bound to the room.
func (m *Manager) Active(roomID domain.RoomID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.streams[roomID]
	return ok
}

// formatEvent renders the mirrored line for relayed event types and reports
// whether the event is mirrored at all.
func formatEvent(ev live.Event) (string, bool) {
	switch ev.Type {
	case live.EventChatMessage:
		if ev.Message == nil {
			return "", false
		}
		return fmt.Sprintf("💬 %s: %s", ev.Message.SenderName, ev.Message.Text), true
	case live.EventUserPromoted:
		return fmt.Sprintf("🎙 %s is now a speaker", ev.Username), true
	case live.EventUserDemoted:
		return fmt.Sprintf("🔇 %s returned to the audience", ev.Username), true
	case live.EventSpeechEnded:
		return fmt.Sprintf("✅ %s finished speaking", ev.Username), true
	case live.EventRoomEnded:
		return "🏁 The live room has ended", true
	default:
		return "", false
	}
}
