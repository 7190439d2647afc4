package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/tool"
)

// OnlyAllowLocal rejects requests that do not come from the loopback interface.
func OnlyAllowLocal(c *gin.Context) {
	ip := c.ClientIP()
	if ip == "127.0.0.1" || ip == "::1" {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, tool.FastReturnError("Forbidden"))
}
