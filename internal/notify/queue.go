package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type 通知类型
type Type string

const (
	TypeMatchResult      Type = "match_result"
	TypeMatchCreated     Type = "match_created"
	TypeStandingsUpdated Type = "standings_updated"
	TypePlayoffUpdated   Type = "playoff_updated"
)

// Notification 进程内临时通知，从不落库，进程结束即消失
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// Queue 有序通知列表，最新在前。写入方只有实时事件处理器和已读回执。
type Queue struct {
	mu    sync.Mutex
	items []Notification
	clock func() time.Time
}

func NewQueue() *Queue {
	return &Queue{clock: time.Now}
}

// Add 分配 id 和创建时间后插到队首；同样内容两次 Add 得到两条独立记录
func (q *Queue) Add(typ Type, title, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: q.clock(),
		Read:      false,
	}
	q.mu.Lock()
	q.items = append([]Notification{n}, q.items...)
	q.mu.Unlock()
	return n
}

// MarkRead 幂等；id 不存在时 no-op
func (q *Queue) MarkRead(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Read = true
			return
		}
	}
}

func (q *Queue) MarkAllRead() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		q.items[i].Read = true
	}
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// UnreadCount 每次现算，不冗余存储
func (q *Queue) UnreadCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for i := range q.items {
		if !q.items[i].Read {
			n++
		}
	}
	return n
}

// List 返回副本，最新在前
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// LatestUnread 单槽 toast 晋升规则：只有最新一条未读会被提示，旧的留在队列里。
// 没有未读时返回 (zero, false)。
func (q *Queue) LatestUnread() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if !q.items[i].Read {
			return q.items[i], true
		}
	}
	return Notification{}, false
}
