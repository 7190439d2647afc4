package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/types"
)

type ProgressController struct {
	env *Env
}

func NewProgressController(env *Env) *ProgressController {
	return &ProgressController{env: env}
}

// HandleProgress returns the completion percentage of a job. Unknown jobs read 0.
// GET /progress/:filename
func (ctrl *ProgressController) HandleProgress(c *gin.Context) {
	p := ctrl.env.Tracker.Get(c.Param("filename"))
	c.JSON(http.StatusOK, types.ProgressResponse{
		Progress: p.Rounded(),
		Status:   p.Status,
	})
}

// Current is the snapshot source for the progress websocket.
func (ctrl *ProgressController) Current(key string) types.JobProgress {
	return ctrl.env.Tracker.Get(key)
}
