package session

import "go-league-core/internal/domain"

// EventKind 外部认证事件
type EventKind int

const (
	SessionEstablished EventKind = iota
	SessionEnded
	TokenRefreshed
)

type Event struct {
	Kind     EventKind
	Identity *domain.Identity // 仅 SessionEstablished 携带
}

// AuthEvents 认证边界：进程启动时订阅一次，teardown 时随 ctx 结束
type AuthEvents interface {
	Events() <-chan Event
}

// ChanAuthEvents 最简实现：登录/登出流程往里推事件
type ChanAuthEvents struct{ C chan Event }

func NewChanAuthEvents() *ChanAuthEvents {
	return &ChanAuthEvents{C: make(chan Event, 8)}
}

func (s *ChanAuthEvents) Events() <-chan Event { return s.C }

func (s *ChanAuthEvents) Establish(id *domain.Identity) {
	s.C <- Event{Kind: SessionEstablished, Identity: id}
}

func (s *ChanAuthEvents) End() { s.C <- Event{Kind: SessionEnded} }

func (s *ChanAuthEvents) Refresh() { s.C <- Event{Kind: TokenRefreshed} }
