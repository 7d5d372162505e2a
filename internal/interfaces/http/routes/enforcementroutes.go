package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
)

// EnforcementRouteConfig holds dependencies for enforcement routes.
type EnforcementRouteConfig struct {
	EnforcementHandler *handlers.EnforcementHandler
}

// SetupEnforcementRoutes configures the decision pipeline routes.
func SetupEnforcementRoutes(engine *gin.Engine, cfg *EnforcementRouteConfig) {
	enforcement := engine.Group("/enforcement")
	{
		enforcement.POST("/evaluate", cfg.EnforcementHandler.Evaluate)
		enforcement.GET("/decisions", cfg.EnforcementHandler.ListDecisions)
		enforcement.GET("/statistics", cfg.EnforcementHandler.Statistics)
	}
}
