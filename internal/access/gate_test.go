package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-league-core/internal/domain"
	"go-league-core/internal/rbac"
	"go-league-core/internal/session"
)

func signedIn(roles ...rbac.Role) session.Snapshot {
	set := make(rbac.Set, 0, len(roles))
	for _, r := range roles {
		set = append(set, rbac.Grant{Role: r})
	}
	return session.Snapshot{
		State:    session.SignedIn,
		Identity: &domain.Identity{ID: "u1"},
		Roles:    set,
		Resolved: true,
	}
}

func TestDecide(t *testing.T) {
	g := NewGate("/auth/login")
	now := time.Now()

	cases := []struct {
		name     string
		snap     session.Snapshot
		required rbac.Role
		want     Decision
		redirect string
	}{
		{"初始快照未解析", session.Snapshot{State: session.SignedOut}, rbac.RoleUser, DecisionLoading, ""},
		{"拉取进行中", session.Snapshot{State: session.Loading, Identity: &domain.Identity{ID: "u1"}}, rbac.RoleAdmin, DecisionLoading, ""},
		{"已解析未登录", session.Snapshot{State: session.SignedOut, Resolved: true}, rbac.RoleUser, DecisionDenied, "/auth/login"},
		{"登录但无授予记录", signedIn(), rbac.RoleUser, DecisionDenied, "/auth/login"},
		{"user 授予通过 user 门禁", signedIn(rbac.RoleUser), rbac.RoleUser, DecisionGranted, ""},
		{"admin 通过 moderator 门禁", signedIn(rbac.RoleAdmin), rbac.RoleModerator, DecisionGranted, ""},
		{"admin 不够 super_admin", signedIn(rbac.RoleAdmin), rbac.RoleSuperAdmin, DecisionDenied, "/auth/login"},
		{"未知角色一律拒绝", signedIn(rbac.RoleSuperAdmin), rbac.Role("owner"), DecisionDenied, "/auth/login"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := g.Decide(tc.snap, tc.required, now)
			assert.Equal(t, tc.want, out.Decision)
			assert.Equal(t, tc.redirect, out.RedirectTo)
		})
	}
}

// 角色已落定但整体快照仍在 Loading：必须等待，不能提前放行或拒绝
func TestDecideWaitsForFullResolution(t *testing.T) {
	g := NewGate("")
	snap := session.Snapshot{
		State:    session.Loading,
		Identity: &domain.Identity{ID: "u1"},
		Roles:    rbac.Set{{Role: rbac.RoleAdmin}},
	}
	out := g.Decide(snap, rbac.RoleAdmin, time.Now())
	assert.Equal(t, DecisionLoading, out.Decision)
	assert.Empty(t, out.RedirectTo)
}

// 授予过期的瞬间门禁翻转为 Denied
func TestDecideExpiryBoundary(t *testing.T) {
	g := NewGate("")
	exp := time.Now()
	snap := session.Snapshot{
		State:    session.SignedIn,
		Identity: &domain.Identity{ID: "u1"},
		Roles:    rbac.Set{{Role: rbac.RoleAdmin, ExpiresAt: &exp}},
		Resolved: true,
	}
	assert.Equal(t, DecisionGranted, g.Decide(snap, rbac.RoleAdmin, exp.Add(-time.Second)).Decision)
	assert.Equal(t, DecisionDenied, g.Decide(snap, rbac.RoleAdmin, exp).Decision)
	assert.Equal(t, DecisionDenied, g.Decide(snap, rbac.RoleAdmin, exp.Add(time.Second)).Decision)
}

func TestNewGateDefaultFallback(t *testing.T) {
	assert.Equal(t, "/auth/login", NewGate("").Fallback)
	assert.Equal(t, "/login", NewGate("/login").Fallback)
}

func TestCanRender(t *testing.T) {
	now := time.Now()
	assert.True(t, CanRender(signedIn(rbac.RoleAdmin), rbac.RoleModerator, now))
	assert.False(t, CanRender(signedIn(rbac.RoleUser), rbac.RoleAdmin, now))
	assert.False(t, CanRender(session.Snapshot{State: session.SignedOut, Resolved: true}, rbac.RoleUser, now))
	// Loading 下一律不渲染受控控件
	assert.False(t, CanRender(session.Snapshot{State: session.Loading, Roles: rbac.Set{{Role: rbac.RoleAdmin}}}, rbac.RoleAdmin, now))
}
