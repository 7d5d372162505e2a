package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
)

// AllowlistRouteConfig holds dependencies for allowlist routes.
type AllowlistRouteConfig struct {
	AllowlistHandler *handlers.AllowlistHandler
}

// SetupAllowlistRoutes configures allowlist management routes.
func SetupAllowlistRoutes(engine *gin.Engine, cfg *AllowlistRouteConfig) {
	allowlist := engine.Group("/allowlist")
	{
		allowlist.POST("", cfg.AllowlistHandler.Add)
		allowlist.GET("", cfg.AllowlistHandler.List)
		allowlist.GET("/:id", cfg.AllowlistHandler.Get)
		allowlist.PUT("/:id", cfg.AllowlistHandler.Update)
		allowlist.DELETE("/:id", cfg.AllowlistHandler.Remove)
	}
}
