package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-league-core/internal/domain"
	"go-league-core/internal/rbac"
)

// ErrNotAuthenticated 需要身份的操作在 SignedOut 下被调用；永远上抛，不吞
var ErrNotAuthenticated = errors.New("session: not authenticated")

// State 会话状态机：SignedOut → Loading → SignedIn → SignedOut
type State int

const (
	SignedOut State = iota
	Loading
	SignedIn
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case SignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Snapshot 当前身份 + 资料 + 角色的只读快照。唯一写入方是 Manager，
// 其他组件拿到的是副本。
type Snapshot struct {
	State    State
	Identity *domain.Identity
	Profile  *domain.Profile
	Roles    rbac.Set
	Resolved bool // 首个快照是否已解析完成（门禁据此渲染 Loading）
}

// RoleFetcher 远程角色解析边界（rbac.Resolver 满足）
type RoleFetcher interface {
	FetchRoles(ctx context.Context, identityID string) (rbac.Set, error)
}

// Manager "当前登录者是谁"的唯一事实来源
type Manager struct {
	mu       sync.RWMutex
	snap     Snapshot
	profiles domain.ProfileRepository
	roles    RoleFetcher
	log      *zap.Logger
	clock    func() time.Time
}

func NewManager(profiles domain.ProfileRepository, roles RoleFetcher, log *zap.Logger) *Manager {
	return &Manager{profiles: profiles, roles: roles, log: log, clock: time.Now}
}

// Run 消费认证事件直至 ctx 结束；进程启动时调一次
func (m *Manager) Run(ctx context.Context, src AuthEvents) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-src.Events():
			if !ok {
				return
			}
			switch evt.Kind {
			case SessionEstablished:
				m.Establish(ctx, evt.Identity)
			case SessionEnded:
				m.End()
			case TokenRefreshed:
				m.Refreshed()
			}
		}
	}
}

// Establish 进入 Loading，并发拉取 profile 与角色，两者都落定（成功或容忍的
// 失败）后才进入 SignedIn —— 避免角色未就绪时闪一帧未授权界面。
func (m *Manager) Establish(ctx context.Context, id *domain.Identity) {
	if id == nil || id.ID == "" {
		return
	}
	m.mu.Lock()
	m.snap = Snapshot{State: Loading, Identity: id}
	m.mu.Unlock()

	var (
		prof  *domain.Profile
		roles rbac.Set
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := m.profiles.FindByID(gctx, id.ID)
		if err != nil {
			// 资料过期可容忍，不致命
			m.log.Warn("profile fetch failed", zap.String("identity_id", id.ID), zap.Error(err))
			return nil
		}
		prof = p
		return nil
	})
	g.Go(func() error {
		set, err := m.roles.FetchRoles(gctx, id.ID)
		if err != nil {
			// 降级为空角色集："已登录无权限"优于"登录不了"
			m.log.Warn("role fetch failed", zap.String("identity_id", id.ID), zap.Error(err))
		}
		roles = set
		return nil
	})
	_ = g.Wait() // 两路都只记日志，不会返回错误

	// 过期响应保护：拉取期间身份已变/已登出则丢弃结果
	m.mu.Lock()
	if m.snap.Identity == nil || m.snap.Identity.ID != id.ID {
		m.mu.Unlock()
		m.log.Debug("discard stale session fetch", zap.String("identity_id", id.ID))
		return
	}
	m.snap = Snapshot{State: SignedIn, Identity: id, Profile: prof, Roles: roles, Resolved: true}
	m.mu.Unlock()

	// 尽力而为的登录时间记录，失败只记日志
	if err := m.profiles.TouchLastLogin(ctx, id.ID, m.clock()); err != nil {
		m.log.Warn("last login touch failed", zap.String("identity_id", id.ID), zap.Error(err))
	}
}

// End 清空快照回到 SignedOut
func (m *Manager) End() {
	m.mu.Lock()
	m.snap = Snapshot{State: SignedOut, Resolved: true}
	m.mu.Unlock()
}

// Refreshed token 续期：不重置状态，快照保留
func (m *Manager) Refreshed() {
	m.mu.RLock()
	state := m.snap.State
	m.mu.RUnlock()
	m.log.Debug("token refreshed", zap.String("state", state.String()))
}

// Snapshot 返回当前快照的副本
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snap
	snap.Roles = append(rbac.Set(nil), m.snap.Roles...)
	return snap
}

// RefreshProfile SignedOut 时 no-op；传输失败静默（留旧快照）
func (m *Manager) RefreshProfile(ctx context.Context) {
	id := m.currentID()
	if id == "" {
		return
	}
	p, err := m.profiles.FindByID(ctx, id)
	if err != nil {
		m.log.Warn("profile refresh failed", zap.String("identity_id", id), zap.Error(err))
		return
	}
	m.apply(id, func(s *Snapshot) { s.Profile = p })
}

// RefreshRoles 同 RefreshProfile 的失败策略
func (m *Manager) RefreshRoles(ctx context.Context) {
	id := m.currentID()
	if id == "" {
		return
	}
	set, err := m.roles.FetchRoles(ctx, id)
	if err != nil {
		m.log.Warn("role refresh failed", zap.String("identity_id", id), zap.Error(err))
		return
	}
	m.apply(id, func(s *Snapshot) { s.Roles = set })
}

// UpdateProfile 校验归属后下发部分更新；成功则用服务端返回的行整体替换
// 快照（不做本地合并，避免漂移）。失败上抛给调用方展示。
func (m *Manager) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.Profile, error) {
	id := m.currentID()
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	p, err := m.profiles.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	m.apply(id, func(s *Snapshot) { s.Profile = p })
	return p, nil
}

func (m *Manager) currentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap.State == SignedOut || m.snap.Identity == nil {
		return ""
	}
	return m.snap.Identity.ID
}

// apply 过期响应保护下的快照局部更新
func (m *Manager) apply(requestedID string, fn func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.Identity == nil || m.snap.Identity.ID != requestedID {
		return
	}
	fn(&m.snap)
}
