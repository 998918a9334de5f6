package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	evtDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "realtime_events_delivered_total", Help: "Change events delivered to subscribers"},
		[]string{"table"},
	)
	evtDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "realtime_events_dropped_total", Help: "Change events dropped on slow subscribers"},
		[]string{"table"},
	)
)

func init() { prometheus.MustRegister(evtDelivered, evtDropped) }

// Handler 每个匹配事件调用一次，同一订阅内按提交顺序串行执行
type Handler func(ChangeEvent)

// Hub 进程内变更事件扇出。一个挂载的消费方（widget）持有一个订阅；
// 不同订阅之间不保证事件先后关系。
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	next   int
	buffer int
	log    *zap.Logger
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[int]*Subscription), buffer: buffer, log: log}
}

// Subscribe 打开一条通道并注册处理器，返回持有方必须释放的句柄。
// 单条订阅内事件按投递顺序串行交给 handler（专属 goroutine 顺序消费）。
func (h *Hub) Subscribe(table string, types []EventType, filter Filter, fn Handler) *Subscription {
	s := &Subscription{
		hub:    h,
		table:  table,
		types:  append([]EventType(nil), types...),
		filter: filter,
		fn:     fn,
		ch:     make(chan ChangeEvent, h.buffer),
	}
	h.mu.Lock()
	s.id = h.next
	h.next++
	h.subs[s.id] = s
	h.mu.Unlock()

	go s.loop()
	return s
}

// Publish 把事件扇出给所有匹配的订阅。慢消费者丢弃（至多一次，尽力投递）。
func (h *Hub) Publish(evt ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !s.matches(evt) {
			continue
		}
		select {
		case s.ch <- evt:
			evtDelivered.WithLabelValues(evt.Table).Inc()
		default:
			evtDropped.WithLabelValues(evt.Table).Inc()
		}
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Subscription 一条打开的通道注册；必须由持有方 Release 恰好一次
type Subscription struct {
	id       int
	hub      *Hub
	table    string
	types    []EventType
	filter   Filter
	fn       Handler
	ch       chan ChangeEvent
	released atomic.Bool
}

func (s *Subscription) matches(evt ChangeEvent) bool {
	if evt.Table != s.table {
		return false
	}
	ok := len(s.types) == 0
	for _, t := range s.types {
		if t == EventAll || t == evt.Type {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	return s.filter.Match(evt)
}

func (s *Subscription) loop() {
	for evt := range s.ch {
		if s.released.Load() {
			return
		}
		s.fn(evt)
	}
}

// Release 关闭通道。重复 Release 属于调用方缺陷：告警 no-op，绝不崩溃，
// handler 也不会再被触发。
func (s *Subscription) Release() {
	if !s.released.CompareAndSwap(false, true) {
		s.hub.log.Warn("subscription released twice",
			zap.Int("sub_id", s.id), zap.String("table", s.table))
		return
	}
	s.hub.remove(s.id)
	close(s.ch)
}
