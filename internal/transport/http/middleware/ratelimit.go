package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "go-league-core/internal/transport/http/response"
)

// RateLimit 进程级令牌桶。赛果录入高峰（整轮比赛同时结束）会带来
// 突发写入，burst 要显著大于 rps。
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, "too many requests"))
			return
		}
		c.Next()
	}
}
