package middleware

import (
	"github.com/gin-gonic/gin"

	"go-league-core/pkg/utils"
)

const KeyRequestID = "X-Request-ID"

// RequestID 透传上游请求 id，没有就生成一个；访问日志用它串联一次请求
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" {
			rid = utils.NewID()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
