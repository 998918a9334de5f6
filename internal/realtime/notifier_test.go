package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-league-core/internal/notify"
)

func mountNotifier(t *testing.T) (*Hub, *notify.Queue, *Notifier) {
	t.Helper()
	hub := NewHub(16, zap.NewNop())
	q := notify.NewQueue()
	n := NewNotifier(hub, q, zap.NewNop())
	n.Mount()
	t.Cleanup(n.Release)
	return hub, q, n
}

// matches UPDATE 且 status=completed → 恰好一条 match_result 插到队首
func TestMatchCompletedProducesResultNotification(t *testing.T) {
	hub, q, _ := mountNotifier(t)

	hub.Publish(ChangeEvent{
		Table: "matches",
		Type:  EventUpdate,
		New: map[string]any{
			"status": "completed", "home_team": "KOPRI", "away_team": "KIOST",
			"home_score": 2, "away_score": 1,
		},
		CommitTime: time.Now(),
	})

	require.Eventually(t, func() bool { return q.UnreadCount() == 1 }, time.Second, 5*time.Millisecond)
	items := q.List()
	require.Len(t, items, 1)
	assert.Equal(t, notify.TypeMatchResult, items[0].Type)
	assert.Contains(t, items[0].Message, "KOPRI")
}

// 非 completed 的 UPDATE 不产生通知
func TestMatchUpdateNotCompletedIgnored(t *testing.T) {
	hub, q, _ := mountNotifier(t)

	hub.Publish(ChangeEvent{
		Table: "matches",
		Type:  EventUpdate,
		New:   map[string]any{"status": "in_progress"},
	})

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, q.UnreadCount())
}

func TestMatchInsertProducesCreatedNotification(t *testing.T) {
	hub, q, _ := mountNotifier(t)

	hub.Publish(ChangeEvent{
		Table: "matches",
		Type:  EventInsert,
		New:   map[string]any{"home_team": "A", "away_team": "B", "status": "scheduled"},
	})

	require.Eventually(t, func() bool { return q.UnreadCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, notify.TypeMatchCreated, q.List()[0].Type)
}

func TestStandingsAndPlayoffNotifications(t *testing.T) {
	hub, q, _ := mountNotifier(t)

	hub.Publish(ChangeEvent{Table: "standings", Type: EventUpdate, New: map[string]any{}})
	hub.Publish(ChangeEvent{Table: "playoffs", Type: EventInsert, New: map[string]any{}})

	require.Eventually(t, func() bool { return q.UnreadCount() == 2 }, time.Second, 5*time.Millisecond)
	types := map[notify.Type]bool{}
	for _, n := range q.List() {
		types[n.Type] = true
	}
	assert.True(t, types[notify.TypeStandingsUpdated])
	assert.True(t, types[notify.TypePlayoffUpdated])
}

// Release 后任何事件都不再产生通知
func TestNotifierReleaseStopsDelivery(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	q := notify.NewQueue()
	n := NewNotifier(hub, q, zap.NewNop())
	n.Mount()
	n.Release()

	hub.Publish(ChangeEvent{
		Table: "matches", Type: EventUpdate,
		New: map[string]any{"status": "completed"},
	})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, q.UnreadCount())
}
