package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
)

// TimeRuleRouteConfig holds dependencies for time rule routes.
type TimeRuleRouteConfig struct {
	TimeRuleHandler *handlers.TimeRuleHandler
}

// SetupTimeRuleRoutes configures time-window rule routes.
func SetupTimeRuleRoutes(engine *gin.Engine, cfg *TimeRuleRouteConfig) {
	rules := engine.Group("/time-rules")
	{
		// Registered before /:id so "check" is not parsed as an id
		rules.GET("/check", cfg.TimeRuleHandler.Check)

		rules.POST("", cfg.TimeRuleHandler.Create)
		rules.GET("", cfg.TimeRuleHandler.List)
		rules.GET("/:id", cfg.TimeRuleHandler.Get)
		rules.PUT("/:id", cfg.TimeRuleHandler.Update)
		rules.DELETE("/:id", cfg.TimeRuleHandler.Delete)
	}
}
