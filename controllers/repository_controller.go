package controllers

import (
	"net/http"
	"strconv"

	"provisionapi/config"
	"provisionapi/pkg/logger"
	"provisionapi/services/hosting"
	"provisionapi/utils"

	"github.com/gin-gonic/gin"
)

var hostingSrv hosting.Client

// SetHostingClient wires the hosting API client used for repository listing.
// Used for dependency injection in tests to provide mock implementations.
func SetHostingClient(client hosting.Client) {
	hostingSrv = client
}

// ListRepositories lists repositories visible to a token
// @Summary List repositories
// @Description Lists repositories for the supplied hosting token, most recently updated first
// @Tags Repositories
// @Produce json
// @Param X-Github-Token header string true "Hosting API token"
// @Param page query int false "Page number (1-based)"
// @Param perPage query int false "Repositories per page, up to 100"
// @Success 200 {object} map[string]interface{} "Repository page"
// @Failure 400 {object} map[string]interface{} "Missing token"
// @Failure 502 {object} map[string]interface{} "Hosting API failure"
// @Router /api/repositories [get]
func listRepositories(c *gin.Context) {
	token := c.GetHeader("X-Github-Token")
	if token == "" {
		utils.JSONResponse(c, http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required header: X-Github-Token",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(config.Cfg.RepoPageSize)))

	logger.Debugf("Listing repositories (page %d, perPage %d)", page, perPage)
	result, err := hostingSrv.ListRepositories(c.Request.Context(), token, page, perPage)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{
		"success":      true,
		"repositories": result.Repositories,
		"hasMore":      result.HasMore,
		"page":         page,
	})
}

// RegisterRepositoryRoutes registers HTTP endpoints for repository listing.
func RegisterRepositoryRoutes(rg *gin.RouterGroup) {
	rg.GET("/repositories", listRepositories)
}
