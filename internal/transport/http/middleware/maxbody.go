package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-league-core/internal/transport/http/response"
)

// MaxBodyBytes 请求体大小上限；头像等大对象不走这条通道
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
		if c.Err() != nil && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "request body too large"))
		}
	}
}
