package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moyoez/video-splitter-go/api/models"
	"github.com/moyoez/video-splitter-go/tool"
)

const sessionContextKey = "splitSessionToken"

// Session makes sure every request carries a session token cookie and registers it.
func Session(cookieName string, registry *models.SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(token) != nil {
			token = tool.GenerateSessionToken()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, token, 0, "/", "", false, true)
		}
		registry.Ensure(token)
		c.Set(sessionContextKey, token)
		c.Next()
	}
}

// SessionToken returns the token Session attached to the request, "" if the middleware did not run.
func SessionToken(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}
