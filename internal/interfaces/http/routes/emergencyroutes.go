package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
)

// EmergencyRouteConfig holds dependencies for emergency override routes.
type EmergencyRouteConfig struct {
	EmergencyHandler *handlers.EmergencyHandler
}

// SetupEmergencyRoutes configures emergency override routes.
func SetupEmergencyRoutes(engine *gin.Engine, cfg *EmergencyRouteConfig) {
	emergency := engine.Group("/emergency")
	{
		emergency.POST("/activate", cfg.EmergencyHandler.Activate)
		emergency.POST("/deactivate", cfg.EmergencyHandler.Deactivate)
		emergency.POST("/extend", cfg.EmergencyHandler.Extend)
		emergency.GET("/status", cfg.EmergencyHandler.Status)
		emergency.GET("/history", cfg.EmergencyHandler.History)
	}
}
