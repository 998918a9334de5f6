package rbac

import (
	"fmt"
	"time"
)

// Role 层级角色
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// rank 显式编码层级，禁止按切片顺序推导（顺序调整不应改变语义）
var rank = map[Role]int{
	RoleUser:       1,
	RoleModerator:  2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Rank 未知角色为 0（低于一切有效角色）
func (r Role) Rank() int { return rank[r] }

func (r Role) Valid() bool { return rank[r] > 0 }

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}

// Grant 一条角色授予；ExpiresAt 为 nil 表示永久
type Grant struct {
	Role      Role       `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ValidAt 到期瞬间即失效：now < expires_at 才算有效
func (g Grant) ValidAt(now time.Time) bool {
	if !g.Role.Valid() {
		return false
	}
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}

// Set 一个身份当前持有的全部授予
type Set []Grant

// MaxRank 未过期授予中的最高层级；空集 / 全过期为 0
func (s Set) MaxRank(now time.Time) int {
	m := 0
	for _, g := range s {
		if g.ValidAt(now) && g.Role.Rank() > m {
			m = g.Role.Rank()
		}
	}
	return m
}

// HasRole 层级判定。没有任何授予记录的身份连 user 都不算 —— 行为与线上一致，
// 不要"修"成默认 user。结果只对 now 这一瞬间有效，跨异步操作须重新判定。
func (s Set) HasRole(required Role, now time.Time) bool {
	req := required.Rank()
	if req == 0 {
		return false
	}
	return s.MaxRank(now) >= req
}
