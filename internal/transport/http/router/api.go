package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-league-core/internal/access"
	"go-league-core/internal/core/auth"
	"go-league-core/internal/domain"
	"go-league-core/internal/feature/prediction"
	"go-league-core/internal/feature/vote"
	"go-league-core/internal/notify"
	"go-league-core/internal/rbac"
	"go-league-core/internal/realtime"
	httpez "go-league-core/internal/transport/http/ez"
	mdw "go-league-core/internal/transport/http/middleware"
)

// Deps 路由层依赖集合；全部显式注入，不走全局状态
type Deps struct {
	DB       *gorm.DB
	JWT      *auth.JWTer
	Resolver *rbac.Resolver
	Hub      *realtime.Hub
	Events   realtime.Publisher
	Queue    *notify.Queue // 进程级通知队列（通知中心视图用）
	Profiles domain.ProfileRepository
	Matches  domain.MatchRepository
	Roles    domain.RoleAssignmentRepository
	Log      *zap.Logger
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(
		ginzap.RecoveryWithZap(l, true),
		cors.Default(),
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查 & 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 前缀
	api := r.Group("/api/v1")

	// 鉴权分组：解析 token + 解析角色集（不设层级下限，登录即可）
	authUser := api.Group("")
	authUser.Use(access.RequireRole(d.JWT, d.Resolver, "", l))

	mountAuthActions(api, authUser, d)
	mountMatchActions(api, authUser, d)
	mountNotifyActions(authUser, d)

	// owner 维度 CRUD：比分预测 + 冠军投票
	httpez.Crud(httpez.CrudConfig[prediction.PredictionModel]{
		DB: d.DB, Group: authUser, Path: "/predictions",
		New:     func() *prediction.PredictionModel { return &prediction.PredictionModel{} },
		OrderBy: "created_at DESC",
	})
	httpez.Crud(httpez.CrudConfig[vote.ChampionVoteModel]{
		DB: d.DB, Group: authUser, Path: "/votes",
		New: func() *vote.ChampionVoteModel { return &vote.ChampionVoteModel{} },
	})

	return r
}
