package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/system", s.handleSystemInfo)

	repos := api.Group("/repos")
	repos.POST("/clone", s.handleClone)
	repos.POST("/init", s.handleInit)
	repos.GET("/status", s.handleStatus)
	repos.GET("/exists", s.handleRepositoryExists)
	repos.POST("/add", s.handleAddAll)
	repos.POST("/commit", s.handleCommit)

	branches := api.Group("/branches")
	branches.GET("", s.handleListBranches)
	branches.POST("", s.handleCreateBranch)
	branches.POST("/generate", s.handleGenerateBranchName)
	branches.GET("/suggest", s.handleSuggestPattern)
	branches.GET("/suggestions", s.handleSuggestions)
	branches.GET("/history", s.handleHistory)
	branches.GET("/config", s.handleGetBranchConfig)
	branches.PUT("/config", s.handleUpdateBranchConfig)

	creds := api.Group("/credentials")
	creds.POST("/:key", s.handleStoreCredentials)
	creds.GET("/:key", s.handleGetCredentials)
	creds.DELETE("/:key", s.handleDeleteCredentials)
	creds.GET("/:key/exists", s.handleCredentialsExist)

	api.GET("/ws/clone", s.handleCloneWebSocket)
}

// handleHealth godoc
// @Summary Health check
// @Description Check if the API and its database are healthy
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:   "healthy",
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Database: "unavailable",
	}

	status := http.StatusOK
	if s.db != nil {
		ctx := c.Request().Context()
		if err := s.db.HealthCheck(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "healthy"
			if v, err := s.db.GetSchemaVersion(ctx); err == nil {
				resp.Schema = &v
			}
		}
	}

	return c.JSON(status, resp)
}

// handleSystemInfo godoc
// @Summary System identity
// @Description Username, machine name and OS type used for branch names
// @Tags system
// @Produce json
// @Success 200 {object} sysinfo.Info
// @Router /system [get]
func (s *Server) handleSystemInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.SystemInfo())
}
