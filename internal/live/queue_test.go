package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fomoclub/liveroom/internal/domain"
)

func TestHandQueue_PositionsAreFIFO(t *testing.T) {
	q := newHandQueue(0)

	a, err := q.raise("userA", 1)
	require.NoError(t, err)
	b, err := q.raise("userB", 5)
	require.NoError(t, err)
	c, err := q.raise("userC", 9)
	require.NoError(t, err)

	// positions strictly increase in raise order regardless of level
	assert.Less(t, a.Position, b.Position)
	assert.Less(t, b.Position, c.Position)

	list := q.list()
	require.Len(t, list, 3)
	assert.Equal(t, domain.UserID("userA"), list[0].UserID)
	assert.Equal(t, domain.UserID("userB"), list[1].UserID)
	assert.Equal(t, domain.UserID("userC"), list[2].UserID)
}

func TestHandQueue_RaiseTwiceFails(t *testing.T) {
	q := newHandQueue(0)

	_, err := q.raise("userA", 0)
	require.NoError(t, err)

	_, err = q.raise("userA", 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyRaised)
	assert.Equal(t, 1, q.len())
}

func TestHandQueue_LowerDoesNotRenumber(t *testing.T) {
	q := newHandQueue(0)

	_, err := q.raise("userA", 0)
	require.NoError(t, err)
	b, err := q.raise("userB", 0)
	require.NoError(t, err)
	c, err := q.raise("userC", 0)
	require.NoError(t, err)

	_, ok := q.lower("userB")
	require.True(t, ok)

	list := q.list()
	require.Len(t, list, 2)
	assert.Equal(t, domain.UserID("userA"), list[0].UserID)
	assert.Equal(t, domain.UserID("userC"), list[1].UserID)
	assert.Equal(t, c.Position, list[1].Position, "remaining positions must not change")

	// a re-raise gets a fresh, higher position
	b2, err := q.raise("userB", 0)
	require.NoError(t, err)
	assert.Greater(t, b2.Position, b.Position)
	assert.Greater(t, b2.Position, c.Position)
}

func TestHandQueue_LimitEnforced(t *testing.T) {
	q := newHandQueue(2)

	_, err := q.raise("userA", 0)
	require.NoError(t, err)
	_, err = q.raise("userB", 0)
	require.NoError(t, err)

	_, err = q.raise("userC", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestHandQueue_Peek(t *testing.T) {
	q := newHandQueue(0)

	_, ok := q.peek()
	assert.False(t, ok)

	_, err := q.raise("userA", 0)
	require.NoError(t, err)
	_, err = q.raise("userB", 0)
	require.NoError(t, err)

	head, ok := q.peek()
	require.True(t, ok)
	assert.Equal(t, domain.UserID("userA"), head.UserID)
}

func TestChatLog_SequenceIsGapFree(t *testing.T) {
	l := newChatLog()

	for i := 0; i < 5; i++ {
		l.append("userA", "A", "hello")
	}

	msgs := l.since(0)
	require.Len(t, msgs, 5)
	for i, msg := range msgs {
		assert.Equal(t, int64(i+1), msg.Seq)
	}

	tail := l.since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, int64(4), tail[0].Seq)
	assert.Equal(t, int64(5), tail[1].Seq)

	assert.Empty(t, l.since(5))
	assert.Empty(t, l.since(99))
}

func TestChatLog_Recent(t *testing.T) {
	l := newChatLog()
	for i := 0; i < 10; i++ {
		l.append("userA", "A", "msg")
	}

	recent := l.recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(8), recent[0].Seq)
	assert.Equal(t, int64(10), recent[2].Seq)

	assert.Len(t, l.recent(100), 10)
}
