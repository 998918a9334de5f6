package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPrependsNewestFirst(t *testing.T) {
	q := NewQueue()
	first := q.Add(TypeMatchCreated, "a", "")
	second := q.Add(TypeMatchResult, "b", "")

	items := q.List()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

// 同样内容 Add 两次 → 两条独立记录，id 不同，未读数 +2
func TestAddDuplicateContent(t *testing.T) {
	q := NewQueue()
	n1 := q.Add(TypeMatchResult, "same", "same")
	n2 := q.Add(TypeMatchResult, "same", "same")

	assert.NotEqual(t, n1.ID, n2.ID)
	assert.Equal(t, 2, q.UnreadCount())
}

func TestMarkRead(t *testing.T) {
	q := NewQueue()
	n := q.Add(TypeStandingsUpdated, "t", "m")
	q.MarkRead(n.ID)
	assert.Equal(t, 0, q.UnreadCount())

	// 幂等 + 未知 id no-op
	q.MarkRead(n.ID)
	q.MarkRead("missing")
	assert.Equal(t, 0, q.UnreadCount())
}

func TestMarkAllRead(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Add(TypePlayoffUpdated, "t", "m")
	}
	q.MarkAllRead()
	assert.Equal(t, 0, q.UnreadCount())

	// 空队列也成立
	empty := NewQueue()
	empty.MarkAllRead()
	assert.Equal(t, 0, empty.UnreadCount())
}

func TestClear(t *testing.T) {
	q := NewQueue()
	q.Add(TypeMatchCreated, "t", "m")
	q.Clear()
	assert.Empty(t, q.List())
	assert.Equal(t, 0, q.UnreadCount())
}

// 单槽 toast：永远只晋升最新一条未读
func TestLatestUnreadSingleSlot(t *testing.T) {
	q := NewQueue()
	_, ok := q.LatestUnread()
	assert.False(t, ok)

	q.Add(TypeMatchCreated, "old", "")
	newest := q.Add(TypeMatchResult, "new", "")

	got, ok := q.LatestUnread()
	require.True(t, ok)
	assert.Equal(t, newest.ID, got.ID)

	// 最新一条已读后，旧的未读重新成为候选（仍只有一条）
	q.MarkRead(newest.ID)
	got, ok = q.LatestUnread()
	require.True(t, ok)
	assert.Equal(t, "old", got.Title)
}

func TestListReturnsCopy(t *testing.T) {
	q := NewQueue()
	q.Add(TypeMatchCreated, "t", "m")
	items := q.List()
	items[0].Read = true
	assert.Equal(t, 1, q.UnreadCount())
}
