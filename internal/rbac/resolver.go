package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-league-core/internal/core/cache"
	"go-league-core/internal/domain"
)

// ErrRoleFetch 远程角色解析失败（传输层）。调用方拿到的是空集合：
// 宁可"已登录但无权限"，不可"无法登录"。
var ErrRoleFetch = errors.New("rbac: fetch roles failed")

type Resolver struct {
	store domain.RoleAssignmentRepository
	cache *cache.Cache // 可为 nil：直连 store
	ttl   time.Duration
	log   *zap.Logger
}

func NewResolver(store domain.RoleAssignmentRepository, c *cache.Cache, ttl time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{store: store, cache: c, ttl: ttl, log: log}
}

// FetchRoles 拉取身份的授予集合。未知身份 → 空集 + nil。
// 传输失败 → 空集 + ErrRoleFetch（容忍降级的调用方直接用空集）。
// 缓存存的是授予列表而非判定结果；HasRole 永远按调用方时钟现算。
func (r *Resolver) FetchRoles(ctx context.Context, identityID string) (Set, error) {
	if identityID == "" {
		return Set{}, nil
	}
	if r.cache == nil {
		return r.load(ctx, identityID)
	}
	set, err := cache.GetOrLoadJSON[Set](r.cache, ctx, roleKey(identityID), r.ttl,
		func(ctx context.Context) (*Set, error) {
			s, e := r.load(ctx, identityID)
			if e != nil {
				return nil, e
			}
			return &s, nil
		})
	if err != nil {
		return Set{}, err
	}
	if set == nil {
		return Set{}, nil
	}
	return *set, nil
}

// Invalidate 授予/撤销后让缓存失效
func (r *Resolver) Invalidate(ctx context.Context, identityID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.RDB.Del(ctx, roleKey(identityID)).Err(); err != nil {
		r.log.Warn("role cache invalidate failed",
			zap.String("identity_id", identityID), zap.Error(err))
	}
}

func (r *Resolver) load(ctx context.Context, identityID string) (Set, error) {
	rows, err := r.store.ListByIdentity(ctx, identityID)
	if err != nil {
		r.log.Warn("fetch roles failed", zap.String("identity_id", identityID), zap.Error(err))
		return Set{}, fmt.Errorf("%w: %v", ErrRoleFetch, err)
	}
	set := make(Set, 0, len(rows))
	for _, row := range rows {
		role, perr := ParseRole(row.Role)
		if perr != nil {
			// 脏数据跳过，不让单条坏记录拖垮整个集合
			r.log.Warn("skip unknown role row",
				zap.String("identity_id", identityID), zap.String("role", row.Role))
			continue
		}
		set = append(set, Grant{Role: role, ExpiresAt: row.ExpiresAt})
	}
	return set, nil
}

func roleKey(identityID string) string { return "roles:" + identityID }
