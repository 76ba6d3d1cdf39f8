package controllers

import (
	"net/http"

	"provisionapi/pkg/logger"
	"provisionapi/services/step"
	"provisionapi/utils"

	"github.com/gin-gonic/gin"
)

// DeployKeyRequest is the payload for deploy key generation.
type DeployKeyRequest struct {
	Host            string `json:"host" validate:"required"`
	Username        string `json:"username" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
	SelectedRepo    string `json:"selectedRepo" validate:"required"`
	GithubToken     string `json:"githubToken"`
}

// DatabaseCreateRequest is the payload for database creation.
type DatabaseCreateRequest struct {
	Host            string `json:"host" validate:"required"`
	Username        string `json:"username" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
	DBType          string `json:"dbType" validate:"required"`
	DBName          string `json:"dbName" validate:"required"`
	DBUsername      string `json:"dbUsername" validate:"required"`
	DBPassword      string `json:"dbPassword" validate:"required"`
	DBPort          int    `json:"dbPort"`
}

// FolderSetupRequest is the payload for folder setup.
type FolderSetupRequest struct {
	Host            string `json:"host" validate:"required"`
	Username        string `json:"username" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
	Pathname        string `json:"pathname" validate:"required"`
}

// EnvSetupRequest is the payload for environment file creation.
type EnvSetupRequest struct {
	Host            string `json:"host" validate:"required"`
	Username        string `json:"username" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
	Pathname        string `json:"pathname"`
	Domain          string `json:"domain"`
}

// EnvUpdateRequest is the payload for environment file updates.
type EnvUpdateRequest struct {
	Host            string            `json:"host" validate:"required"`
	Username        string            `json:"username" validate:"required"`
	ApplicationName string            `json:"applicationName" validate:"required"`
	Pathname        string            `json:"pathname"`
	Env             map[string]string `json:"env" validate:"required,min=1"`
}

// SSHKeySetupRequest is the payload for server SSH key generation.
type SSHKeySetupRequest struct {
	Host            string `json:"host" validate:"required"`
	Username        string `json:"username" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
}

// DeployWorkflowRequest is the payload for deploy workflow pull requests.
type DeployWorkflowRequest struct {
	Host            string `json:"host" validate:"required"`
	Username        string `json:"username" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
	SelectedRepo    string `json:"selectedRepo"`
	GithubToken     string `json:"githubToken"`
	Pathname        string `json:"pathname"`
}

// bindStepRequest binds and validates a step payload; a false return means
// the response has already been written.
func bindStepRequest(c *gin.Context, params interface{}) bool {
	if err := c.ShouldBindJSON(params); err != nil {
		utils.JSONResponse(c, http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return false
	}
	if err := utils.ValidateStruct(params); err != nil {
		utils.ErrorResponse(c, err)
		return false
	}
	return true
}

// runStep executes a step and writes the standard response envelope.
// Validation and unknown-application errors become 4xx; a step that ran but
// failed reports 500 with the failure message while its history row is
// already written.
func runStep(c *gin.Context, stepName string, in step.Inputs) {
	logger.Debugf("Running step %s for %s@%s (%s)", stepName, in.Username, in.Host, in.ApplicationName)
	result, err := executorSrv.Execute(c.Request.Context(), stepName, in)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	if !result.Success {
		utils.JSONResponse(c, http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   result.Message,
		})
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"data":    result.Data,
	})
}

// GenerateDeployKey generates and registers a deploy key
// @Summary Generate deploy key
// @Description Generates a deploy keypair, registers it with the hosting service and installs it on the server
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body DeployKeyRequest true "Deploy key parameters"
// @Success 200 {object} map[string]interface{} "Deploy key registered"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/deploy-key [post]
func generateDeployKey(c *gin.Context) {
	var params DeployKeyRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepDeployKeyGeneration, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		SelectedRepo:    params.SelectedRepo,
		GithubToken:     params.GithubToken,
	})
}

// CreateDatabase provisions the application database
// @Summary Create database
// @Description Creates the application database and user on the target host
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body DatabaseCreateRequest true "Database parameters"
// @Success 200 {object} map[string]interface{} "Database created"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/database-create [post]
func createDatabase(c *gin.Context) {
	var params DatabaseCreateRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepDatabaseCreation, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		DBType:          params.DBType,
		DBName:          params.DBName,
		DBUsername:      params.DBUsername,
		DBPassword:      params.DBPassword,
		DBPort:          params.DBPort,
	})
}

// SetupFolder prepares the deployment directory layout
// @Summary Set up folders
// @Description Creates the deployment directory layout and fixes ownership
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body FolderSetupRequest true "Folder parameters"
// @Success 200 {object} map[string]interface{} "Folders prepared"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/folder-setup [post]
func setupFolder(c *gin.Context) {
	var params FolderSetupRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepFolderSetup, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		Pathname:        params.Pathname,
	})
}

// SetupEnv writes the application environment file
// @Summary Set up environment file
// @Description Writes the application .env file from the saved database config
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body EnvSetupRequest true "Environment parameters"
// @Success 200 {object} map[string]interface{} "Environment file written"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/env-setup [post]
func setupEnv(c *gin.Context) {
	var params EnvSetupRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepEnvSetup, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		Pathname:        params.Pathname,
		Domain:          params.Domain,
	})
}

// UpdateEnv merges entries into the environment file
// @Summary Update environment file
// @Description Merges key=value entries into the application .env file
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body EnvUpdateRequest true "Environment entries"
// @Success 200 {object} map[string]interface{} "Environment file updated"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/env-update [post]
func updateEnv(c *gin.Context) {
	var params EnvUpdateRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepEnvUpdate, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		Pathname:        params.Pathname,
		Env:             params.Env,
	})
}

// SetupSSHKey generates the server's SSH identity
// @Summary Set up server SSH key
// @Description Generates the server's own SSH keypair used to pull from the repository
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body SSHKeySetupRequest true "Step parameters"
// @Success 200 {object} map[string]interface{} "SSH key generated"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/ssh-key-setup [post]
func setupSSHKey(c *gin.Context) {
	var params SSHKeySetupRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepSSHKeySetup, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
	})
}

// UpdateDeployWorkflow proposes the CI deploy workflow
// @Summary Propose deploy workflow
// @Description Opens a pull request adding the deployment workflow to the selected repository
// @Tags Steps
// @Accept json
// @Produce json
// @Param params body DeployWorkflowRequest true "Workflow parameters"
// @Success 200 {object} map[string]interface{} "Pull request opened"
// @Failure 400 {object} map[string]interface{} "Missing or invalid fields"
// @Failure 404 {object} map[string]interface{} "Application not found"
// @Failure 500 {object} map[string]interface{} "Step failed"
// @Router /api/step/deploy-workflow-update [post]
func updateDeployWorkflow(c *gin.Context) {
	var params DeployWorkflowRequest
	if !bindStepRequest(c, &params) {
		return
	}
	runStep(c, step.StepDeployWorkflowUpdate, step.Inputs{
		Host:            params.Host,
		Username:        params.Username,
		ApplicationName: params.ApplicationName,
		SelectedRepo:    params.SelectedRepo,
		GithubToken:     params.GithubToken,
		Pathname:        params.Pathname,
	})
}

// RegisterStepRoutes registers HTTP endpoints for step execution.
func RegisterStepRoutes(rg *gin.RouterGroup) {
	steps := rg.Group("/step")
	{
		steps.POST("/deploy-key", generateDeployKey)
		steps.POST("/database-create", createDatabase)
		steps.POST("/folder-setup", setupFolder)
		steps.POST("/env-setup", setupEnv)
		steps.POST("/env-update", updateEnv)
		steps.POST("/ssh-key-setup", setupSSHKey)
		steps.POST("/deploy-workflow-update", updateDeployWorkflow)
	}
}
