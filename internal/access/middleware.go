package access

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-league-core/internal/core/auth"
	"go-league-core/internal/rbac"
	resp "go-league-core/internal/transport/http/response"
)

// 上下文键
const (
	KeyIdentityID = "identityId"
	KeyEmail      = "email"
	KeyRoleRank   = "roleRank"
)

// RoleFetcher 与 session.RoleFetcher 同形，避免包环
type RoleFetcher interface {
	FetchRoles(ctx context.Context, identityID string) (rbac.Set, error)
}

// RequireRole 门禁的服务端形态：解析 bearer token，按策略函数解析角色集，
// 做层级判定。required 为空串角色时只要求已登录。
// 角色拉取失败按降级处理（空集），所以表现为 403 而不是 500。
func RequireRole(j *auth.JWTer, roles RoleFetcher, required rbac.Role, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}

		set, err := roles.FetchRoles(c.Request.Context(), claims.UID)
		if err != nil {
			log.Warn("role resolve degraded", zap.String("identity_id", claims.UID), zap.Error(err))
		}
		if required != "" && !set.HasRole(required, time.Now()) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}

		c.Set(KeyIdentityID, claims.UID)
		c.Set(KeyEmail, claims.Email)
		c.Set(KeyRoleRank, set.MaxRank(time.Now()))
		c.Next()
	}
}
