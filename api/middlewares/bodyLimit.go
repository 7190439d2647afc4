package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/tool"
)

// LimitBody rejects bodies larger than maxBytes with 413. Declared lengths are checked up front,
// chunked bodies are cut off by http.MaxBytesReader while being read.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			tool.DefaultLogger.Warnf("[LimitBody] Rejected %d byte body from %s", c.Request.ContentLength, c.ClientIP())
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, tool.FastReturnError("File too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from a body cut off by LimitBody.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
