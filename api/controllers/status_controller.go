package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatusController struct {
	env *Env
}

func NewStatusController(env *Env) *StatusController {
	return &StatusController{env: env}
}

// HandleStatus returns server status for local tooling.
// GET /status
func (ctrl *StatusController) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":     true,
		"active_jobs": ctrl.env.Tracker.ActiveJobs(),
	})
}
