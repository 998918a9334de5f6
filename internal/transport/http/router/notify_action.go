package router

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-league-core/internal/access"
	"go-league-core/internal/domain"
	"go-league-core/internal/notify"
	"go-league-core/internal/realtime"
	"go-league-core/internal/session"
	httpez "go-league-core/internal/transport/http/ez"
)

// 通知接口：进程级队列做通知中心视图；/notifications/stream 则给每个
// 连接一个独立的会话代理（自己的队列 + 订阅句柄，断开即释放）。
func mountNotifyActions(authUser *gin.RouterGroup, d Deps) {
	ez := httpez.New(authUser)

	type listOut struct {
		Items  []notify.Notification `json:"items"`
		Unread int                   `json:"unread"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, d.DB, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/notifications",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (listOut, error) {
			return listOut{Items: d.Queue.List(), Unread: d.Queue.UnreadCount()}, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/notifications/:id/read",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			d.Queue.MarkRead(c.Param("id"))
			return gin.H{"unread": d.Queue.UnreadCount()}, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/notifications/read-all",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			d.Queue.MarkAllRead()
			return gin.H{"unread": 0}, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/notifications",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			d.Queue.Clear()
			return gin.H{"unread": 0}, nil
		},
	})

	// --- SSE toast 流 ---
	authUser.GET("/notifications/stream", func(c *gin.Context) { streamToasts(c, d) })
}

// streamToasts 每个连接一套：会话代理 + 队列 + 订阅。单槽 toast 规则 ——
// 每次只推最新一条未读，推过即标记，旧通知留在队列里。
func streamToasts(c *gin.Context, d Deps) {
	ident := &domain.Identity{
		ID:    c.GetString(access.KeyIdentityID),
		Email: c.GetString(access.KeyEmail),
	}

	mgr := session.NewManager(d.Profiles, d.Resolver, d.Log)
	mgr.Establish(c.Request.Context(), ident)

	queue := notify.NewQueue()
	notifier := realtime.NewNotifier(d.Hub, queue, d.Log)
	notifier.Mount()
	defer notifier.Release() // 断开即释放全部句柄，恰好一次

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			if n, ok := queue.LatestUnread(); ok {
				queue.MarkRead(n.ID)
				c.SSEvent("toast", n)
			}
			return true
		}
	})
}
