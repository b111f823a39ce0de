// Package live implements the room coordination engine: participant roles,
// the hand-raise queue, the speaker slot, the chat log and the per-room
// event fan-out that both transports observe.
package live

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/domain"
	"github.com/fomoclub/liveroom/internal/repository"
)

// Options bound per-room state. Zero values fall back to sane defaults.
type Options struct {
	QueueLimit       int
	ChatHistoryLimit int
	SubscriberBuffer int
}

func (o Options) withDefaults() Options {
	if o.ChatHistoryLimit <= 0 {
		o.ChatHistoryLimit = 100
	}
	if o.SubscriberBuffer <= 0 {
		o.SubscriberBuffer = 32
	}
	return o
}

// Session is the single-writer serialization boundary for one room. Every
// mutating call runs under one mutex; different rooms share nothing, so
// rooms execute fully in parallel. A failed call never leaves a partial
// mutation behind: validation happens before the first write.
type Session struct {
	mu    sync.Mutex
	room  domain.Room
	reg   *registry
	queue *handQueue
	slot  *speakerSlot
	chat  *chatLog

	subs    map[int64]chan Event
	nextSub int64

	repo repository.Repository
	opts Options
}

// NewSession creates the state container for one room. The room record is
// persisted by the Manager, not here.
func NewSession(room domain.Room, repo repository.Repository, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		room:  room,
		reg:   newRegistry(),
		queue: newHandQueue(opts.QueueLimit),
		slot:  newSpeakerSlot(),
		chat:  newChatLog(),
		subs:  make(map[int64]chan Event),
		repo:  repo,
		opts:  opts,
	}
}

// Room returns a copy of the room record.
func (s *Session) Room() domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Subscribe registers a push observer. Events arrive in emission order;
// a subscriber that cannot keep up has frames dropped for itself only.
func (s *Session) Subscribe() (int64, <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	ch := make(chan Event, s.opts.SubscriberBuffer)
	s.subs[id] = ch
	return id, ch
}

func (s *Session) Unsubscribe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// emit fans one event out to every subscriber. Callers hold the mutex, so
// per-room emission order is the mutation order.
func (s *Session) emit(ev Event) {
	ev.RoomID = s.room.ID
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("module", "live.session").Str("room", string(s.room.ID)).
				Int64("sub", id).Str("event", string(ev.Type)).Msg("slow subscriber, frame dropped")
		}
	}
}

func (s *Session) ensureMutable() error {
	if s.room.Status == domain.RoomEnded {
		return domain.ErrRoomEnded
	}
	return nil
}

func (s *Session) requireModerator(id domain.UserID) (*domain.Participant, error) {
	p, ok := s.reg.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, id)
	}
	if !p.Role.CanModerate() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrUnauthorized, id, p.Role)
	}
	return p, nil
}

// Start moves the room from created to active. Only the host or a joined
// moderator may start it. Starting an active room is a no-op so a
// reconnecting host cannot fail its own session.
func (s *Session) Start(ctx context.Context, actorID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actorID != s.room.HostID {
		if _, err := s.requireModerator(actorID); err != nil {
			return err
		}
	}
	switch s.room.Status {
	case domain.RoomActive:
		return nil
	case domain.RoomEnded:
		return domain.ErrRoomEnded
	}
	s.room.Status = domain.RoomActive
	s.room.StartedAt = time.Now().UTC()
	s.persistRoom(ctx)
	return nil
}

// Join adds a participant or treats a repeat join as a reconnect: role and
// join order survive, only name and presence refresh. The session owner
// always joins as host; everyone else starts as listener.
func (s *Session) Join(ctx context.Context, id domain.UserID, name string, conn domain.ConnState) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return domain.Participant{}, err
	}

	if p, ok := s.reg.get(id); ok {
		if name != "" && name != p.Name {
			if err := p.SetName(name); err != nil {
				return domain.Participant{}, err
			}
		}
		s.reg.touch(id, conn)
		s.emit(s.presenceEvent(EventUserJoined, p))
		return *p, nil
	}

	role := domain.RoleListener
	if id == s.room.HostID {
		role = domain.RoleHost
	}
	p, err := domain.NewParticipant(id, name, role, conn)
	if err != nil {
		return domain.Participant{}, err
	}
	s.reg.add(p)
	s.emit(s.presenceEvent(EventUserJoined, p))
	return *p, nil
}

// Leave is the explicit removal path: it drops the participant from the
// registry and the queue, and ends their speech if they held the floor.
func (s *Session) Leave(ctx context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	p, ok := s.reg.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, id)
	}
	// queue membership leaves with the participant; observers learn from
	// the user_left payload, not a separate queue event
	_, _ = s.queue.lower(id)
	if s.slot.current != nil && s.slot.current.speakerID == id {
		s.finishSpeech(ctx)
	}
	s.reg.remove(id)
	s.emit(s.presenceEvent(EventUserLeft, p))
	return nil
}

// MarkConn updates presence only. Transient drops never demote anyone.
func (s *Session) MarkConn(id domain.UserID, conn domain.ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.touch(id, conn)
}

// markStale flags push participants silent for longer than grace as
// disconnected. Called by the presence sweeper.
func (s *Session) markStale(grace time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-grace)
	n := 0
	for _, uid := range s.reg.order {
		p := s.reg.byID[uid]
		if p.Conn == domain.ConnPush && p.LastSeen.Before(cutoff) {
			p.Conn = domain.ConnDisconnected
			n++
		}
	}
	return n
}

// SetRole promotes or demotes a participant. Host is assigned at creation
// and can never be granted or revoked here.
func (s *Session) SetRole(ctx context.Context, actorID, targetID domain.UserID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if _, err := s.requireModerator(actorID); err != nil {
		return err
	}
	if role == domain.RoleHost || !role.Valid() {
		return fmt.Errorf("%w: cannot assign role %q", domain.ErrInvalidTransition, role)
	}
	target, ok := s.reg.get(targetID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, targetID)
	}
	if target.Role == domain.RoleHost {
		return fmt.Errorf("%w: host role is fixed", domain.ErrInvalidTransition)
	}
	if target.Role == role {
		return nil
	}

	promoted := role == domain.RoleSpeaker || role == domain.RoleModerator
	target.Role = role
	evType := EventUserDemoted
	if promoted {
		evType = EventUserPromoted
	}
	stats := s.statsLocked()
	s.emit(Event{
		Type:     evType,
		UserID:   target.UserID,
		Username: target.Name,
		Role:     role,
		Stats:    &stats,
	})
	return nil
}

// Raise puts a listener into the hand-raise queue.
func (s *Session) Raise(ctx context.Context, id domain.UserID) (QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return QueueEntry{}, err
	}
	p, ok := s.reg.get(id)
	if !ok {
		return QueueEntry{}, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, id)
	}
	if p.Role == domain.RoleSpeaker || p.Role.CanModerate() {
		return QueueEntry{}, fmt.Errorf("%w: %s may already speak", domain.ErrInvalidTransition, id)
	}
	hr, err := s.queue.raise(id, p.Level)
	if err != nil {
		return QueueEntry{}, err
	}
	s.emitQueueUpdate(id, "raise")
	return s.queueEntry(*hr), nil
}

// Lower removes a pending hand raise; the owner or any moderator may do it.
func (s *Session) Lower(ctx context.Context, actorID, targetID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if actorID != targetID {
		if _, err := s.requireModerator(actorID); err != nil {
			return err
		}
	}
	if _, ok := s.queue.lower(targetID); !ok {
		return fmt.Errorf("%w: no pending raise for %s", domain.ErrHandRaiseNotFound, targetID)
	}
	s.emitQueueUpdate(targetID, "lower")
	return nil
}

// Approve atomically removes the queue entry, promotes the participant to
// speaker and hands them the floor. No observer ever sees the intermediate
// "approved but still listener" state because all three writes happen under
// the session lock after validation. An occupied floor does not block the
// queue: the previous speech is finished (with its speech_ended emit) and
// the approved participant takes over.
func (s *Session) Approve(ctx context.Context, moderatorID domain.UserID, handRaiseID domain.HandRaiseID) (CurrentSpeaker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return CurrentSpeaker{}, err
	}
	if _, err := s.requireModerator(moderatorID); err != nil {
		return CurrentSpeaker{}, err
	}
	hr, ok := s.queue.byID(handRaiseID)
	if !ok {
		return CurrentSpeaker{}, fmt.Errorf("%w: %s", domain.ErrHandRaiseNotFound, handRaiseID)
	}
	target, ok := s.reg.get(hr.UserID)
	if !ok {
		return CurrentSpeaker{}, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, hr.UserID)
	}
	if s.slot.current != nil {
		s.finishSpeech(ctx)
	}

	s.queue.removeEntry(hr)
	target.Role = domain.RoleSpeaker
	target.Speaking = true
	sp := s.slot.start(hr.ID, target.UserID)

	speaker := CurrentSpeaker{
		SpeechID:  sp.id,
		UserID:    target.UserID,
		Username:  target.Name,
		StartedAt: sp.startedAt,
	}
	stats := s.statsLocked()
	s.emit(Event{
		Type:     EventUserPromoted,
		UserID:   target.UserID,
		Username: target.Name,
		Role:     domain.RoleSpeaker,
		Queue:    s.queueEntries(),
		Speaker:  &speaker,
		Stats:    &stats,
	})
	return speaker, nil
}

// StartSpeech grants the floor to an existing speaker without a queue entry
// (hosts and already-promoted speakers). The speech gets a synthetic id.
func (s *Session) StartSpeech(ctx context.Context, id domain.UserID) (CurrentSpeaker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return CurrentSpeaker{}, err
	}
	p, ok := s.reg.get(id)
	if !ok {
		return CurrentSpeaker{}, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, id)
	}
	if p.Role != domain.RoleSpeaker && !p.Role.CanModerate() {
		return CurrentSpeaker{}, fmt.Errorf("%w: %s is %s", domain.ErrNotASpeaker, id, p.Role)
	}
	if s.slot.current != nil {
		return CurrentSpeaker{}, fmt.Errorf("%w: floor is taken by %s", domain.ErrInvalidTransition, s.slot.current.speakerID)
	}
	sp := s.slot.start(domain.HandRaiseID(uuid.NewString()), id)
	p.Speaking = true
	speaker := CurrentSpeaker{SpeechID: sp.id, UserID: id, Username: p.Name, StartedAt: sp.startedAt}
	speaking := true
	s.emit(Event{
		Type:       EventSpeakingStatus,
		UserID:     id,
		Username:   p.Name,
		IsSpeaking: &speaking,
		Speaker:    &speaker,
	})
	return speaker, nil
}

// EndSpeech clears the slot. Allowed for moderators, the host and the
// speaking participant themselves.
func (s *Session) EndSpeech(ctx context.Context, actorID domain.UserID, speechID domain.HandRaiseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	cur := s.slot.current
	if cur == nil {
		return fmt.Errorf("%w: no active speech", domain.ErrInvalidTransition)
	}
	if speechID != "" && cur.id != speechID {
		return fmt.Errorf("%w: speech %s is not active", domain.ErrInvalidTransition, speechID)
	}
	if actorID != cur.speakerID {
		if _, err := s.requireModerator(actorID); err != nil {
			return err
		}
	}
	s.finishSpeech(ctx)
	return nil
}

// finishSpeech ends the current speech and emits speech_ended, the trigger
// clients use to show the peer-support prompt. Caller holds the lock.
func (s *Session) finishSpeech(ctx context.Context) {
	sp := s.slot.end()
	if sp == nil {
		return
	}
	username := ""
	if p, ok := s.reg.get(sp.speakerID); ok {
		p.Speaking = false
		username = p.Name
	}
	s.emit(Event{
		Type:            EventSpeechEnded,
		SpeechID:        sp.id,
		SpeakerID:       sp.speakerID,
		Username:        username,
		DurationSeconds: int64(sp.duration(time.Now().UTC()).Seconds()),
	})
}

// SetSpeaking flips the lightweight "is talking right now" flag shown next
// to avatars. It is independent of the speaker slot.
func (s *Session) SetSpeaking(ctx context.Context, id domain.UserID, speaking bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return err
	}
	p, ok := s.reg.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, id)
	}
	if speaking && p.Role != domain.RoleSpeaker && !p.Role.CanModerate() {
		return fmt.Errorf("%w: %s is %s", domain.ErrNotASpeaker, id, p.Role)
	}
	p.Speaking = speaking
	s.emit(Event{Type: EventSpeakingStatus, UserID: id, Username: p.Name, IsSpeaking: &speaking})
	return nil
}

// Support records a one-shot peer reaction for a speech. Exactly once per
// (speech, supporter); the speaker cannot support themselves.
func (s *Session) Support(ctx context.Context, supporterID domain.UserID, speechID domain.HandRaiseID, t domain.SupportType) (*domain.SpeechSupport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: support type %q", domain.ErrInvalidTransition, t)
	}
	sp, err := s.slot.support(speechID, supporterID, t)
	if err != nil {
		return nil, err
	}
	sup := &domain.SpeechSupport{
		ID:          uuid.NewString(),
		SpeechID:    speechID,
		RoomID:      s.room.ID,
		SpeakerID:   sp.speakerID,
		SupporterID: supporterID,
		Type:        t,
		SentAt:      time.Now().UTC(),
	}
	if err := s.repo.SaveSupport(ctx, sup); err != nil {
		log.Error().Err(err).Str("module", "live.session").Str("room", string(s.room.ID)).Msg("persist support")
	}
	s.emit(Event{
		Type:        EventSupportReceived,
		SpeechID:    speechID,
		SpeakerID:   sp.speakerID,
		UserID:      supporterID,
		SupportType: t,
	})
	return sup, nil
}

// AppendChat appends a message, assigns its sequence number and broadcasts
// it. The in-memory log is the live source of truth; the repository write
// is durability only and must not fail the room operation.
func (s *Session) AppendChat(ctx context.Context, senderID domain.UserID, text string) (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMutable(); err != nil {
		return domain.ChatMessage{}, err
	}
	p, ok := s.reg.get(senderID)
	if !ok {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", domain.ErrParticipantNotFound, senderID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: empty message", domain.ErrInvalidTransition)
	}
	msg := s.chat.append(senderID, p.Name, text)
	if err := s.repo.AppendChat(ctx, s.room.ID, msg); err != nil {
		log.Error().Err(err).Str("module", "live.session").Str("room", string(s.room.ID)).Msg("persist chat")
	}
	s.emit(Event{Type: EventChatMessage, Message: &msg})
	return msg, nil
}

// ChatSince returns exactly the messages with seq greater than the cursor.
// Reads work on ended rooms so late pull clients can drain final state.
func (s *Session) ChatSince(seq int64) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.since(seq)
}

// End closes the room. Mutations fail from here on; snapshots still work.
func (s *Session) End(ctx context.Context, actorID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.Status == domain.RoomEnded {
		return domain.ErrRoomEnded
	}
	if _, err := s.requireModerator(actorID); err != nil {
		return err
	}
	if s.slot.current != nil {
		s.finishSpeech(ctx)
	}
	s.room.Status = domain.RoomEnded
	s.room.EndedAt = time.Now().UTC()
	s.persistRoom(ctx)
	s.emit(Event{Type: EventRoomEnded})
	return nil
}

func (s *Session) persistRoom(ctx context.Context) {
	room := s.room
	if err := s.repo.SaveRoom(ctx, &room); err != nil {
		log.Error().Err(err).Str("module", "live.session").Str("room", string(room.ID)).Msg("persist room")
	}
}

// Snapshot returns the full self-sufficient room view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Room:         s.room,
		Participants: s.reg.list(),
		Queue:        s.queueEntries(),
		Chat:         s.chat.recent(s.opts.ChatHistoryLimit),
		LastSeq:      s.chat.lastSeq(),
		Stats:        s.statsLocked(),
	}
	if cur := s.slot.current; cur != nil {
		username := ""
		if p, ok := s.reg.get(cur.speakerID); ok {
			username = p.Name
		}
		snap.Speaker = &CurrentSpeaker{
			SpeechID:  cur.id,
			UserID:    cur.speakerID,
			Username:  username,
			StartedAt: cur.startedAt,
		}
	}
	return snap
}

// Stats recomputes the derived counters.
func (s *Session) Stats() RoomStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Session) statsLocked() RoomStats {
	return RoomStats{
		TotalParticipants: s.reg.len(),
		Speakers:          s.reg.countByRole(domain.RoleSpeaker),
		Listeners:         s.reg.countByRole(domain.RoleListener),
		HandsRaised:       s.queue.len(),
	}
}

func (s *Session) queueEntry(hr domain.HandRaise) QueueEntry {
	e := QueueEntry{
		HandRaiseID: hr.ID,
		UserID:      hr.UserID,
		Level:       hr.Level,
		Position:    hr.Position,
		RaisedAt:    hr.RaisedAt,
	}
	if p, ok := s.reg.get(hr.UserID); ok {
		e.Username = p.Name
		e.Role = p.Role
	}
	return e
}

func (s *Session) queueEntries() []QueueEntry {
	raises := s.queue.list()
	out := make([]QueueEntry, 0, len(raises))
	for _, hr := range raises {
		out = append(out, s.queueEntry(hr))
	}
	return out
}

func (s *Session) emitQueueUpdate(userID domain.UserID, action string) {
	stats := s.statsLocked()
	s.emit(Event{
		Type:   EventHandRaisedUpdate,
		UserID: userID,
		Action: action,
		Queue:  s.queueEntries(),
		Stats:  &stats,
	})
}

func (s *Session) presenceEvent(t EventType, p *domain.Participant) Event {
	stats := s.statsLocked()
	return Event{
		Type:     t,
		UserID:   p.UserID,
		Username: p.Name,
		Role:     p.Role,
		Stats:    &stats,
	}
}
