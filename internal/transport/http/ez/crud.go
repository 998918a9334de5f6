package ez

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	resp "go-league-core/internal/transport/http/response"
	"go-league-core/pkg/utils"
)

// CrudHooks 写入前校验 / 列表追加筛选
type CrudHooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, m *T) error
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB
}

// CrudConfig 身份归属维度的 CRUD：行的 OwnerID 一律取自已鉴权的
// identityId，调用方传什么都会被覆盖，跨身份读写天然不可达。
type CrudConfig[T any] struct {
	DB    *gorm.DB
	Group *gin.RouterGroup // 必须是已挂 RequireRole 的分组
	Path  string
	New   func() *T

	Hooks CrudHooks[T]

	// 列表排序子句，空则按 id DESC
	OrderBy string
}

// 反射读写字符串字段；模型约定：主键 ID、归属 OwnerID，都是 string
func strField(obj any, name string) (*string, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	f := v.Elem().FieldByName(name)
	if !f.IsValid() || f.Kind() != reflect.String || !f.CanSet() {
		return nil, false
	}
	return f.Addr().Interface().(*string), true
}

func setField(obj any, name, val string) bool {
	p, ok := strField(obj, name)
	if !ok {
		return false
	}
	*p = val
	return true
}

func intQuery(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v >= 0 {
		return v
	}
	return def
}

// Crud 注册归属维度的五个端点（POST/GET 列表/GET/PUT/DELETE）
func Crud[T any](cfg CrudConfig[T]) {
	_ = cfg.DB.AutoMigrate(cfg.New())

	owner := func(c *gin.Context) (string, bool) {
		uid := c.GetString(keyIdentityID)
		if uid == "" {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return "", false
		}
		return uid, true
	}

	// 归属过滤条件（结构体 Where，列名由 gorm 映射）
	scoped := func(uid, id string) *T {
		f := cfg.New()
		setField(f, "OwnerID", uid)
		if id != "" {
			setField(f, "ID", id)
		}
		return f
	}

	cfg.Group.POST(cfg.Path, func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		m := cfg.New()
		if err := c.ShouldBindJSON(m); err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		// ID 为空则生成；OwnerID 强制为当前身份
		if p, ok := strField(m, "ID"); ok && strings.TrimSpace(*p) == "" {
			*p = utils.NewID()
		}
		if !setField(m, "OwnerID", uid) {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "owner field not found"))
			return
		}
		if cfg.Hooks.BeforeCreate != nil {
			if err := cfg.Hooks.BeforeCreate(c, m); err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
				return
			}
		}
		if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, resp.OK(m))
	})

	cfg.Group.GET(cfg.Path, func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		offset := intQuery(c, "offset", 0)
		limit := intQuery(c, "limit", 20)
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		q := cfg.DB.WithContext(c).Model(cfg.New()).Where(scoped(uid, ""))
		if cfg.Hooks.ScopeList != nil {
			q = cfg.Hooks.ScopeList(c, q)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, err.Error()))
			return
		}
		order := cfg.OrderBy
		if order == "" {
			order = "id DESC"
		}
		var items []T
		if err := q.Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"items": items, "total": total}))
	})

	cfg.Group.GET(cfg.Path+"/:id", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		m := cfg.New()
		if err := cfg.DB.WithContext(c).Where(scoped(uid, c.Param("id"))).First(m).Error; err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "not found"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(m))
	})

	cfg.Group.PUT(cfg.Path+"/:id", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		id := c.Param("id")
		cond := scoped(uid, id)

		// 先确认归属再更新
		if err := cfg.DB.WithContext(c).Where(cond).First(cfg.New()).Error; err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "not found"))
			return
		}
		in := cfg.New()
		if err := c.ShouldBindJSON(in); err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		setField(in, "ID", id)
		setField(in, "OwnerID", uid)
		if cfg.Hooks.BeforeUpdate != nil {
			if err := cfg.Hooks.BeforeUpdate(c, in); err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
				return
			}
		}
		if err := cfg.DB.WithContext(c).Model(cfg.New()).Where(cond).Updates(in).Error; err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"id": id}))
	})

	cfg.Group.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		id := c.Param("id")
		res := cfg.DB.WithContext(c).Where(scoped(uid, id)).Delete(cfg.New())
		if res.Error != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, res.Error.Error()))
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "not found"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"id": id}))
	})
}
