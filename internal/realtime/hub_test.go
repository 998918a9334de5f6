package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *recorder) handle(evt ChangeEvent) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

func (r *recorder) list() []ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChangeEvent(nil), r.events...)
}

func upd(table, status string) ChangeEvent {
	return ChangeEvent{
		Table:      table,
		Type:       EventUpdate,
		New:        map[string]any{"status": status},
		CommitTime: time.Now(),
	}
}

// 单条订阅内按投递顺序串行交付，无丢失
func TestSubscribeOrdering(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	rec := &recorder{}
	sub := hub.Subscribe("matches", []EventType{EventUpdate}, Filter{}, rec.handle)
	defer sub.Release()

	e1 := upd("matches", "one")
	e2 := upd("matches", "two")
	e3 := upd("matches", "three")
	hub.Publish(e1)
	hub.Publish(e2)
	hub.Publish(e3)

	require.Eventually(t, func() bool { return len(rec.list()) == 3 }, time.Second, 5*time.Millisecond)
	got := rec.list()
	assert.Equal(t, "one", got[0].New["status"])
	assert.Equal(t, "two", got[1].New["status"])
	assert.Equal(t, "three", got[2].New["status"])
}

func TestSubscribeTableAndTypeFilter(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	rec := &recorder{}
	sub := hub.Subscribe("matches", []EventType{EventInsert}, Filter{}, rec.handle)
	defer sub.Release()

	hub.Publish(upd("matches", "x"))                              // 类型不符
	hub.Publish(ChangeEvent{Table: "teams", Type: EventInsert})   // 表不符
	hub.Publish(ChangeEvent{Table: "matches", Type: EventInsert}) // 命中

	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond) // 确认没有多余交付
	assert.Len(t, rec.list(), 1)
}

func TestSubscribeWildcard(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	rec := &recorder{}
	sub := hub.Subscribe("playoffs", []EventType{EventAll}, Filter{}, rec.handle)
	defer sub.Release()

	hub.Publish(ChangeEvent{Table: "playoffs", Type: EventInsert})
	hub.Publish(ChangeEvent{Table: "playoffs", Type: EventDelete})

	require.Eventually(t, func() bool { return len(rec.list()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestSubscribeRowFilter(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	rec := &recorder{}
	sub := hub.Subscribe("matches", []EventType{EventUpdate},
		Filter{Column: "status", Value: "completed"}, rec.handle)
	defer sub.Release()

	hub.Publish(upd("matches", "in_progress"))
	hub.Publish(upd("matches", "completed"))

	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "completed", rec.list()[0].New["status"])
}

// 重复 Release：告警 no-op，不 panic，handler 不再触发
func TestReleaseTwice(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	rec := &recorder{}
	sub := hub.Subscribe("matches", []EventType{EventUpdate}, Filter{}, rec.handle)

	sub.Release()
	assert.NotPanics(t, func() { sub.Release() })

	hub.Publish(upd("matches", "completed"))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.list())
}

// 不同订阅互不影响；释放一个不打断另一个
func TestIndependentSubscriptions(t *testing.T) {
	hub := NewHub(16, zap.NewNop())
	a, b := &recorder{}, &recorder{}
	subA := hub.Subscribe("matches", []EventType{EventUpdate}, Filter{}, a.handle)
	subB := hub.Subscribe("matches", []EventType{EventUpdate}, Filter{}, b.handle)

	subA.Release()
	hub.Publish(upd("matches", "completed"))

	require.Eventually(t, func() bool { return len(b.list()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, a.list())
	subB.Release()
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("status=completed")
	require.NoError(t, err)
	assert.Equal(t, Filter{Column: "status", Value: "completed"}, f)

	f, err = ParseFilter("status=eq.completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", f.Value)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.True(t, f.Empty())

	_, err = ParseFilter("nonsense")
	assert.Error(t, err)
}

func TestFilterMatchUsesOldRowOnDelete(t *testing.T) {
	f := Filter{Column: "status", Value: "completed"}
	evt := ChangeEvent{
		Table: "matches",
		Type:  EventDelete,
		Old:   map[string]any{"status": "completed"},
	}
	assert.True(t, f.Match(evt))
	assert.False(t, f.Match(ChangeEvent{Table: "matches", Type: EventDelete}))
}
