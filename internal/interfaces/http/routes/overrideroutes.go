package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
)

// OverrideRouteConfig holds dependencies for override routes.
type OverrideRouteConfig struct {
	OverrideHandler *handlers.OverrideHandler
}

// SetupOverrideRoutes configures per-request override routes.
func SetupOverrideRoutes(engine *gin.Engine, cfg *OverrideRouteConfig) {
	overrides := engine.Group("/overrides")
	{
		// Registered before /:request_id so "stats" is not parsed as an id
		overrides.GET("/stats", cfg.OverrideHandler.Stats)
		overrides.PUT("/master-pin", cfg.OverrideHandler.SetMasterPIN)
		overrides.DELETE("/master-pin", cfg.OverrideHandler.ClearMasterPIN)

		overrides.POST("", cfg.OverrideHandler.Create)
		overrides.GET("", cfg.OverrideHandler.List)
		overrides.GET("/:request_id", cfg.OverrideHandler.Get)
		overrides.POST("/:request_id/redeem", cfg.OverrideHandler.Redeem)
		overrides.POST("/:request_id/cancel", cfg.OverrideHandler.Cancel)
	}
}
