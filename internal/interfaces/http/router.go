package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/interfaces/http/handlers"
	"github.com/warden-sh/warden/internal/interfaces/http/middleware"
	"github.com/warden-sh/warden/internal/interfaces/http/routes"
)

func (c *Container) buildEngine() *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(c.log))
	engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	engine.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	enforcementHandler := handlers.NewEnforcementHandler(c.enforcementService, c.log)
	allowlistHandler := handlers.NewAllowlistHandler(c.allowlistService, c.log)
	timeRuleHandler := handlers.NewTimeRuleHandler(c.timeRuleService, c.log)
	emergencyHandler := handlers.NewEmergencyHandler(c.emergencyService, c.log)
	overrideHandler := handlers.NewOverrideHandler(c.overrideService, c.log)
	consentHandler := handlers.NewConsentHandler(c.consentService, c.log)

	routes.SetupEnforcementRoutes(engine, &routes.EnforcementRouteConfig{
		EnforcementHandler: enforcementHandler,
	})
	routes.SetupAllowlistRoutes(engine, &routes.AllowlistRouteConfig{
		AllowlistHandler: allowlistHandler,
	})
	routes.SetupTimeRuleRoutes(engine, &routes.TimeRuleRouteConfig{
		TimeRuleHandler: timeRuleHandler,
	})
	routes.SetupEmergencyRoutes(engine, &routes.EmergencyRouteConfig{
		EmergencyHandler: emergencyHandler,
	})
	routes.SetupOverrideRoutes(engine, &routes.OverrideRouteConfig{
		OverrideHandler: overrideHandler,
	})
	routes.SetupConsentRoutes(engine, &routes.ConsentRouteConfig{
		ConsentHandler: consentHandler,
	})

	return engine
}
