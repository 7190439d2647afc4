package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/api/middlewares"
	"github.com/moyoez/video-splitter-go/tool"
)

type SessionController struct {
	env       *Env
	indexPage []byte
}

func NewSessionController(env *Env, indexPage []byte) *SessionController {
	return &SessionController{env: env, indexPage: indexPage}
}

// HandleIndex starts the caller over: everything its session still holds is deleted
// before the landing page is served.
// GET /
func (ctrl *SessionController) HandleIndex(c *gin.Context) {
	ctrl.env.Sessions.PurgeSession(middlewares.SessionToken(c))
	c.Data(http.StatusOK, "text/html; charset=utf-8", ctrl.indexPage)
}

// HandleCleanup deletes the caller's pending uploads and output folders.
// POST /cleanup
func (ctrl *SessionController) HandleCleanup(c *gin.Context) {
	removed := ctrl.env.Sessions.PurgeSession(middlewares.SessionToken(c))
	tool.DefaultLogger.Debugf("[Cleanup] Removed %d paths", removed)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(map[string]any{
		"removed": removed,
	}))
}
