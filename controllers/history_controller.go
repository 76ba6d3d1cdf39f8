package controllers

import (
	"net/http"

	"provisionapi/pkg/logger"
	"provisionapi/utils"

	"github.com/gin-gonic/gin"
)

// ListSteps returns the ordered step history for an application
// @Summary List step history
// @Description Returns every step invocation for an application, oldest first
// @Tags Steps
// @Produce json
// @Param host path string true "Target host"
// @Param username path string true "SSH username"
// @Param applicationName path string true "Application name"
// @Success 200 {object} map[string]interface{} "Step history"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/steps/{host}/{username}/{applicationName} [get]
func listSteps(c *gin.Context) {
	host := c.Param("host")
	username := c.Param("username")
	applicationName := c.Param("applicationName")

	if host == "" || username == "" || applicationName == "" {
		utils.JSONResponse(c, http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required fields: host, username, applicationName",
		})
		return
	}

	logger.Debugf("Listing step history for %s@%s (%s)", username, host, applicationName)
	entries, err := executorSrv.History(host, username, applicationName)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{
		"success": true,
		"steps":   entries,
	})
}

// RegisterHistoryRoutes registers HTTP endpoints for the step history.
func RegisterHistoryRoutes(rg *gin.RouterGroup) {
	rg.GET("/steps/:host/:username/:applicationName", listSteps)
}
