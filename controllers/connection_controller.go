package controllers

import (
	"net/http"

	"provisionapi/pkg/logger"
	"provisionapi/services/step"
	"provisionapi/utils"

	"github.com/gin-gonic/gin"
)

// VerifyConnectionRequest is the payload for connection verification.
type VerifyConnectionRequest struct {
	Host              string `json:"host" validate:"required"`
	Username          string `json:"username" validate:"required"`
	ApplicationName   string `json:"applicationName" validate:"required"`
	Port              int    `json:"port"`
	PrivateKeyContent string `json:"privateKeyContent" validate:"required"`
	GithubToken       string `json:"githubToken"`
}

// VerifyConnection verifies SSH and hosting connectivity for an application
// @Summary Verify connection
// @Description Opens an SSH session to the target host, optionally verifies the hosting token, and registers the application
// @Tags Connection
// @Accept json
// @Produce json
// @Param params body VerifyConnectionRequest true "Connection parameters"
// @Success 200 {object} map[string]interface{} "Connection verified"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/connection/verify [post]
func verifyConnection(c *gin.Context) {
	var params VerifyConnectionRequest
	if err := c.ShouldBindJSON(&params); err != nil {
		utils.JSONResponse(c, http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := utils.ValidateStruct(&params); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if !utils.IsValidHost(params.Host) {
		utils.JSONResponse(c, http.StatusBadRequest, gin.H{"success": false, "error": "Invalid host"})
		return
	}

	logger.Debugf("Verifying connection for %s@%s (%s)", params.Username, params.Host, params.ApplicationName)
	result, err := executorSrv.Execute(c.Request.Context(), step.StepConnectionVerification, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		Port:            params.Port,
		PrivateKey:      params.PrivateKeyContent,
		GithubToken:     params.GithubToken,
	})
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	response := gin.H{
		"success": result.Success,
		"message": result.Message,
	}
	if result.Data != nil {
		response["sessionId"] = result.Data["sessionId"]
		response["connections"] = result.Data["connections"]
	}
	if !result.Success {
		response["error"] = result.Message
	}
	utils.JSONResponse(c, http.StatusOK, response)
}

// RegisterConnectionRoutes registers HTTP endpoints for connection verification.
func RegisterConnectionRoutes(rg *gin.RouterGroup) {
	connection := rg.Group("/connection")
	{
		connection.POST("/verify", verifyConnection)
	}
}
