package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-league-core/internal/access"
	"go-league-core/internal/domain"
	"go-league-core/internal/feature/identity"
	"go-league-core/internal/feature/roles"
	"go-league-core/internal/rbac"
	httpez "go-league-core/internal/transport/http/ez"
	"go-league-core/pkg/utils"
)

// 把管理端接口集中在这里注册
func MountAdminActions(admin *gin.RouterGroup, d Deps) {
	_ = d.DB.AutoMigrate(&identity.IdentityModel{}, &roles.RoleAssignmentModel{})

	ezAdmin := httpez.New(admin)

	// --- GET /admin/v1/users 用户列表 ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 按 email/name 模糊搜
	}
	type row struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Provider  string    `json:"provider"`
		CreatedAt time.Time `json:"createdAt"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}

	httpez.RegisterAction[listQ, listOut](ezAdmin, d.DB, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			q := tx.Model(&identity.IdentityModel{})
			if s := strings.TrimSpace(in.Q); s != "" {
				like := "%" + s + "%"
				q = q.Where("email LIKE ? OR name LIKE ?", like, like)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				return listOut{}, httpez.Internal("count users failed", err)
			}

			var ids []identity.IdentityModel
			if err := q.Order("created_at DESC").Limit(in.Limit).Offset(in.Offset).Find(&ids).Error; err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}

			out := listOut{Total: total, Items: make([]row, 0, len(ids))}
			for _, u := range ids {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, Name: u.Name, Provider: u.Provider, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// --- POST /admin/v1/roles/grant 授予角色 ---
	// 授予 admin / super_admin 本身需要 super_admin
	type grantIn struct {
		IdentityID string     `json:"identityId" binding:"required"`
		Role       string     `json:"role"       binding:"required"`
		ExpiresAt  *time.Time `json:"expiresAt"`
		Reason     string     `json:"reason"     binding:"omitempty,max=255"`
	}
	httpez.RegisterAction[grantIn, *domain.RoleAssignment](ezAdmin, d.DB, httpez.Action[grantIn, *domain.RoleAssignment]{
		Method: http.MethodPost,
		Path:   "/roles/grant",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *grantIn) (*domain.RoleAssignment, error) {
			role, err := rbac.ParseRole(in.Role)
			if err != nil {
				return nil, httpez.BadRequest(err.Error())
			}
			if role.Rank() >= rbac.RoleAdmin.Rank() &&
				c.GetInt(access.KeyRoleRank) < rbac.RoleSuperAdmin.Rank() {
				return nil, httpez.Forbidden("super_admin required to grant elevated roles")
			}
			if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
				return nil, httpez.BadRequest("expiresAt already passed")
			}
			ra := &domain.RoleAssignment{
				ID:         utils.NewID(),
				IdentityID: in.IdentityID,
				Role:       string(role),
				ExpiresAt:  in.ExpiresAt,
				GrantedBy:  c.GetString(access.KeyIdentityID),
				Reason:     in.Reason,
			}
			if err := d.Roles.Grant(c.Request.Context(), ra); err != nil {
				return nil, httpez.Internal("grant failed", err)
			}
			d.Resolver.Invalidate(c.Request.Context(), in.IdentityID)
			return ra, nil
		},
	})

	// --- POST /admin/v1/roles/:id/revoke 撤销授予 ---
	type revokeIn struct {
		IdentityID string `json:"identityId" binding:"required"` // 用于失效缓存
	}
	httpez.RegisterAction[revokeIn, gin.H](ezAdmin, d.DB, httpez.Action[revokeIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/roles/:id/revoke",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *revokeIn) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			if err := d.Roles.Revoke(c.Request.Context(), id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, httpez.NotFound("assignment not found")
				}
				return nil, httpez.Internal("revoke failed", err)
			}
			d.Resolver.Invalidate(c.Request.Context(), in.IdentityID)
			return gin.H{"id": id}, nil
		},
	})
}
