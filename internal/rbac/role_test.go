package rbac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestRoleRank(t *testing.T) {
	assert.Equal(t, 1, RoleUser.Rank())
	assert.Equal(t, 2, RoleModerator.Rank())
	assert.Equal(t, 3, RoleAdmin.Rank())
	assert.Equal(t, 4, RoleSuperAdmin.Rank())
	assert.Equal(t, 0, Role("owner").Rank())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("moderator")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestHasRoleHierarchy(t *testing.T) {
	now := time.Now()
	admin := Set{{Role: RoleAdmin}}

	tests := []struct {
		name     string
		set      Set
		required Role
		want     bool
	}{
		{"admin passes moderator", admin, RoleModerator, true},
		{"admin passes user", admin, RoleUser, true},
		{"admin passes admin", admin, RoleAdmin, true},
		{"admin fails super_admin", admin, RoleSuperAdmin, false},
		{"empty set fails user", Set{}, RoleUser, false},
		{"nil set fails user", nil, RoleUser, false},
		{"explicit user passes user", Set{{Role: RoleUser}}, RoleUser, true},
		{"max wins over lower grants", Set{{Role: RoleUser}, {Role: RoleSuperAdmin}}, RoleAdmin, true},
		{"unknown required always false", Set{{Role: RoleSuperAdmin}}, Role("owner"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.HasRole(tt.required, now))
		})
	}
}

// 到期瞬间翻转：expires_at 前 1 tick 有效，之后无效
func TestHasRoleExpiryBoundary(t *testing.T) {
	exp := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	set := Set{{Role: RoleAdmin, ExpiresAt: ptr(exp)}}

	assert.True(t, set.HasRole(RoleAdmin, exp.Add(-time.Nanosecond)))
	assert.False(t, set.HasRole(RoleAdmin, exp))
	assert.False(t, set.HasRole(RoleAdmin, exp.Add(time.Nanosecond)))
}

// 只持有过期授予的身份等同于没有授予：任何角色检查都不过
func TestHasRoleAllExpired(t *testing.T) {
	now := time.Now()
	set := Set{
		{Role: RoleSuperAdmin, ExpiresAt: ptr(now.Add(-time.Hour))},
		{Role: RoleUser, ExpiresAt: ptr(now.Add(-time.Minute))},
	}
	for _, r := range []Role{RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin} {
		assert.False(t, set.HasRole(r, now), "role %s", r)
	}
	assert.Equal(t, 0, set.MaxRank(now))
}

// 一条过期一条未过期：只算未过期那条
func TestHasRoleMixedExpiry(t *testing.T) {
	now := time.Now()
	set := Set{
		{Role: RoleSuperAdmin, ExpiresAt: ptr(now.Add(-time.Second))},
		{Role: RoleModerator},
	}
	assert.True(t, set.HasRole(RoleModerator, now))
	assert.False(t, set.HasRole(RoleAdmin, now))
}
