package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
)

// ConsentRouteConfig holds dependencies for consent routes.
type ConsentRouteConfig struct {
	ConsentHandler *handlers.ConsentHandler
}

// SetupConsentRoutes configures multi-approver consent routes.
func SetupConsentRoutes(engine *gin.Engine, cfg *ConsentRouteConfig) {
	consents := engine.Group("/consents")
	{
		// Registered before /:request_id so these are not parsed as ids
		consents.GET("/stats", cfg.ConsentHandler.Stats)
		consents.GET("/state/:consent_type", cfg.ConsentHandler.State)

		consents.POST("", cfg.ConsentHandler.Create)
		consents.GET("", cfg.ConsentHandler.List)
		consents.GET("/:request_id", cfg.ConsentHandler.Get)
		consents.POST("/:request_id/decide", cfg.ConsentHandler.Decide)
		consents.POST("/:request_id/cancel", cfg.ConsentHandler.Cancel)
	}
}
