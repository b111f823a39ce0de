package live

import (
	"time"

	"github.com/fomoclub/liveroom/internal/domain"
)

// chatLog is the append-only per-room chat sequence. Seq starts at 1 and is
// gap-free, which is what lets pull clients fetch only what they are missing.
type chatLog struct {
	msgs []domain.ChatMessage
	seq  int64
}

func newChatLog() *chatLog { return &chatLog{} }

func (l *chatLog) append(sender domain.UserID, name, text string) domain.ChatMessage {
	l.seq++
	msg := domain.ChatMessage{
		Seq:        l.seq,
		SenderID:   sender,
		SenderName: name,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	l.msgs = append(l.msgs, msg)
	return msg
}

// since returns exactly the messages with seq > given, in order.
func (l *chatLog) since(seq int64) []domain.ChatMessage {
	if seq < 0 {
		seq = 0
	}
	if seq >= l.seq {
		return []domain.ChatMessage{}
	}
	// seq numbers are dense, so the slice offset is just the cursor itself.
	out := make([]domain.ChatMessage, l.seq-seq)
	copy(out, l.msgs[seq:])
	return out
}

// recent returns up to n trailing messages for snapshots.
func (l *chatLog) recent(n int) []domain.ChatMessage {
	if n <= 0 || n > len(l.msgs) {
		n = len(l.msgs)
	}
	out := make([]domain.ChatMessage, n)
	copy(out, l.msgs[len(l.msgs)-n:])
	return out
}

func (l *chatLog) lastSeq() int64 { return l.seq }
