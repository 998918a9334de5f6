package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-league-core/internal/domain"
	"go-league-core/internal/feature/match"
	"go-league-core/internal/rbac"
	"go-league-core/internal/realtime"
	httpez "go-league-core/internal/transport/http/ez"
	"go-league-core/pkg/utils"
)

// 比赛接口：读公开；写需要 moderator 及以上。写成功后向变更通道广播，
// 订阅方（通知 widget、排行榜）据此刷新 —— 托管端 DB 触发器的等价物。
func mountMatchActions(api, authUser *gin.RouterGroup, d Deps) {
	_ = d.DB.AutoMigrate(&match.MatchModel{})

	ezPublic := httpez.New(api)
	ezAuth := httpez.New(authUser)

	// --- GET /matches 列表（公开） ---
	type listQ struct {
		Offset int `form:"offset,default=0"`
		Limit  int `form:"limit,default=20"`
	}
	type listOut struct {
		Total int64          `json:"total"`
		Items []domain.Match `json:"items"`
	}
	httpez.RegisterAction[listQ, listOut](ezPublic, d.DB, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/matches",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			items, total, err := d.Matches.List(c.Request.Context(), in.Offset, in.Limit)
			if err != nil {
				return listOut{}, httpez.Internal("list matches failed", err)
			}
			return listOut{Total: total, Items: items}, nil
		},
	})

	// --- POST /matches 建赛程（moderator+） ---
	type createIn struct {
		HomeTeam string     `json:"homeTeam" binding:"required,max=64"`
		AwayTeam string     `json:"awayTeam" binding:"required,max=64"`
		PlayedAt *time.Time `json:"playedAt"`
	}
	httpez.RegisterAction[createIn, *domain.Match](ezAuth, d.DB, httpez.Action[createIn, *domain.Match]{
		Method:  http.MethodPost,
		Path:    "/matches",
		Binder:  httpez.BindJSON,
		Auth:    true,
		MinRole: rbac.RoleModerator,
		Handler: func(c *gin.Context, _ *gorm.DB, in *createIn) (*domain.Match, error) {
			m := &domain.Match{
				ID:       utils.NewID(),
				HomeTeam: in.HomeTeam,
				AwayTeam: in.AwayTeam,
				Status:   domain.MatchScheduled,
				PlayedAt: in.PlayedAt,
			}
			if err := d.Matches.Create(c.Request.Context(), m); err != nil {
				return nil, httpez.Internal("create match failed", err)
			}
			publishMatch(c, d, realtime.EventInsert, nil, m)
			return m, nil
		},
	})

	// --- POST /matches/:id/complete 录入比分（moderator+） ---
	type completeIn struct {
		HomeScore int `json:"homeScore" binding:"min=0"`
		AwayScore int `json:"awayScore" binding:"min=0"`
	}
	httpez.RegisterAction[completeIn, *domain.Match](ezAuth, d.DB, httpez.Action[completeIn, *domain.Match]{
		Method:  http.MethodPost,
		Path:    "/matches/:id/complete",
		Binder:  httpez.BindJSON,
		Auth:    true,
		MinRole: rbac.RoleModerator,
		Handler: func(c *gin.Context, _ *gorm.DB, in *completeIn) (*domain.Match, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			old, err := d.Matches.FindByID(c.Request.Context(), id)
			if err != nil {
				return nil, httpez.Internal("load match failed", err)
			}
			if old == nil {
				return nil, httpez.NotFound("match not found")
			}
			m, err := d.Matches.Complete(c.Request.Context(), id, in.HomeScore, in.AwayScore)
			if err != nil {
				return nil, httpez.Internal("complete match failed", err)
			}
			if m == nil {
				return nil, httpez.NotFound("match not found")
			}
			publishMatch(c, d, realtime.EventUpdate, old, m)
			return m, nil
		},
	})
}

// publishMatch 广播失败不影响写操作本身：至多一次、尽力投递
func publishMatch(c *gin.Context, d Deps, typ realtime.EventType, old, cur *domain.Match) {
	if d.Events == nil {
		return
	}
	evt := realtime.ChangeEvent{
		Table:      "matches",
		Type:       typ,
		Old:        matchRow(old),
		New:        matchRow(cur),
		CommitTime: time.Now(),
	}
	if err := d.Events.Publish(c.Request.Context(), evt); err != nil {
		d.Log.Warn("publish change event failed",
			zap.String("table", "matches"), zap.String("type", string(typ)), zap.Error(err))
	}
}

func matchRow(m *domain.Match) map[string]any {
	if m == nil {
		return nil
	}
	return map[string]any{
		"id":         m.ID,
		"home_team":  m.HomeTeam,
		"away_team":  m.AwayTeam,
		"status":     m.Status,
		"home_score": m.HomeScore,
		"away_score": m.AwayScore,
	}
}
