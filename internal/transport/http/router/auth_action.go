package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-league-core/internal/access"
	"go-league-core/internal/domain"
	"go-league-core/internal/feature/identity"
	"go-league-core/internal/feature/profile"
	httpez "go-league-core/internal/transport/http/ez"
	"go-league-core/pkg/utils"
)

// ---------- 动作注册：/auth/login + /me ----------

func mountAuthActions(api, authUser *gin.RouterGroup, d Deps) {
	// 确保身份/资料表
	_ = d.DB.AutoMigrate(&identity.IdentityModel{}, &profile.ProfileModel{})

	// 公共分组（无需登录）
	ezPublic := httpez.New(api)

	// /auth/login：查不到就自动注册（identities + profiles 同建，
	// 托管端 on-signup 触发器的等价物）+ 发 JWT
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"     binding:"omitempty,max=64"` // 首次注册可用
	}
	type loginOut struct {
		Token string      `json:"token"`
		IsNew bool        `json:"isNew"`
		User  interface{} `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ezPublic, d.DB, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Auth:   false,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (loginOut, error) {
			email := strings.TrimSpace(in.Email)
			name := strings.TrimSpace(in.Name)

			var id identity.IdentityModel
			err := tx.Where("email = ?", email).First(&id).Error

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// 自动注册
				if name == "" {
					if at := strings.IndexByte(email, '@'); at > 0 {
						name = email[:at]
					} else {
						name = "user"
					}
				}
				id = identity.IdentityModel{
					ID:           utils.NewID(),
					Email:        email,
					Provider:     string(domain.ProviderPassword),
					Name:         name,
					PasswordHash: utils.HashPassword(in.Password),
				}
				if e := tx.Create(&id).Error; e != nil {
					// 并发兜底：唯一冲突 → 再查一次
					if isDupKey(e) {
						if e2 := tx.Where("email = ?", email).First(&id).Error; e2 != nil {
							return loginOut{}, httpez.Internal("login failed", e2)
						}
					} else {
						return loginOut{}, httpez.BadRequest(e.Error())
					}
				} else {
					// 资料随身份同建
					p := profile.ProfileModel{ID: id.ID, DisplayName: name, IsActive: true}
					if e := tx.Create(&p).Error; e != nil {
						return loginOut{}, httpez.Internal("create profile failed", e)
					}
				}
				tok, e := d.JWT.Issue(id.ID, id.Email, id.Provider)
				if e != nil || tok == "" {
					return loginOut{}, httpez.Internal("issue token failed", e)
				}
				return loginOut{
					Token: tok, IsNew: true,
					User: gin.H{"id": id.ID, "email": id.Email, "name": id.Name, "provider": id.Provider},
				}, nil

			case err != nil:
				return loginOut{}, httpez.Internal("db error", err)

			default:
				// 已存在 → 校验密码
				if !utils.CheckPassword(in.Password, id.PasswordHash) {
					return loginOut{}, httpez.Unauthorized("invalid credentials")
				}
				tok, e := d.JWT.Issue(id.ID, id.Email, id.Provider)
				if e != nil || tok == "" {
					return loginOut{}, httpez.Internal("issue token failed", e)
				}
				// 登录时间：尽力而为，失败只记日志
				if e := d.Profiles.TouchLastLogin(c.Request.Context(), id.ID, time.Now()); e != nil {
					d.Log.Warn("last login touch failed", zap.String("identity_id", id.ID), zap.Error(e))
				}
				return loginOut{
					Token: tok, IsNew: false,
					User: gin.H{"id": id.ID, "email": id.Email, "name": id.Name, "provider": id.Provider},
				}, nil
			}
		},
	})

	// 鉴权分组（需要登录）
	ezAuth := httpez.New(authUser)

	// GET /me：资料快照
	httpez.RegisterAction[struct{}, *domain.Profile](ezAuth, d.DB, httpez.Action[struct{}, *domain.Profile]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Profile, error) {
			uid := c.GetString(access.KeyIdentityID)
			p, err := d.Profiles.FindByID(c.Request.Context(), uid)
			if err != nil {
				return nil, httpez.Internal("profile fetch failed", err)
			}
			if p == nil {
				return nil, httpez.NotFound("profile not found")
			}
			return p, nil
		},
	})

	// PATCH 语义的部分更新：归属即 token 身份；返回服务端行
	type patchIn struct {
		DisplayName *string `json:"displayName"`
		Department  *string `json:"department"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatarUrl"`
	}
	httpez.RegisterAction[patchIn, *domain.Profile](ezAuth, d.DB, httpez.Action[patchIn, *domain.Profile]{
		Method: http.MethodPut,
		Path:   "/me",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *patchIn) (*domain.Profile, error) {
			uid := c.GetString(access.KeyIdentityID)
			p, err := d.Profiles.Update(c.Request.Context(), uid, domain.ProfilePatch{
				DisplayName: in.DisplayName,
				Department:  in.Department,
				Bio:         in.Bio,
				AvatarURL:   in.AvatarURL,
			})
			if err != nil {
				// 变更失败要让用户看到，可重试
				return nil, httpez.Internal("profile update failed", err)
			}
			return p, nil
		},
	})

}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，避免版本差异导致"undefined"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
