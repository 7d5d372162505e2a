package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/application/governance/services"
	infraCache "github.com/warden-sh/warden/internal/infrastructure/cache"
	"github.com/warden-sh/warden/internal/infrastructure/config"
	"github.com/warden-sh/warden/internal/infrastructure/policy"
	"github.com/warden-sh/warden/internal/infrastructure/repository"
	"github.com/warden-sh/warden/internal/infrastructure/scheduler"
	"github.com/warden-sh/warden/internal/shared/goroutine"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// Container wires repositories, services, handlers, and background jobs,
// and provides a Shutdown() method for graceful termination.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	allowlistService   *services.AllowlistService
	timeRuleService    *services.TimeRuleService
	emergencyService   *services.EmergencyService
	overrideService    *services.OverrideService
	consentService     *services.ConsentService
	enforcementService *services.EnforcementService

	scheduler  *scheduler.SchedulerManager
	httpServer *http.Server
}

// NewContainer builds the full service graph. The redis client is optional:
// without it PIN redemption runs unthrottled.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		db:    db,
		cfg:   cfg,
		log:   log,
		redis: redisClient,
	}

	allowlistRepo := repository.NewAllowlistRepository(db, log)
	timeRuleRepo := repository.NewTimeRuleRepository(db, log)
	emergencyRepo := repository.NewEmergencyRepository(db, log)
	overrideRepo := repository.NewOverrideRequestRepository(db, log)
	consentRepo := repository.NewConsentRepository(db, log)
	decisionRepo := repository.NewDecisionLogRepository(db, log)

	evaluator, err := policy.NewEvaluator(cfg.Policy, db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build policy evaluator: %w", err)
	}

	var limiter services.PINAttemptLimiter
	if redisClient != nil {
		limiter = infraCache.NewPINAttemptLimiter(redisClient)
	}

	c.allowlistService = services.NewAllowlistService(
		allowlistRepo,
		time.Duration(cfg.Governance.AllowlistCacheTTL)*time.Second,
		log,
	)
	c.timeRuleService = services.NewTimeRuleService(
		timeRuleRepo,
		time.Duration(cfg.Governance.TimeRuleCacheTTL)*time.Second,
		log,
	)
	c.emergencyService = services.NewEmergencyService(
		emergencyRepo,
		time.Duration(cfg.Governance.EmergencyCacheTTL)*time.Second,
		log,
	)
	c.overrideService = services.NewOverrideService(overrideRepo, limiter, log)
	if cfg.Governance.MasterPIN != "" {
		if err := c.overrideService.SetMasterPIN(cfg.Governance.MasterPIN); err != nil {
			return nil, fmt.Errorf("invalid master PIN in configuration: %w", err)
		}
	}
	c.consentService = services.NewConsentService(consentRepo, log)
	c.enforcementService = services.NewEnforcementService(
		c.emergencyService,
		c.allowlistService,
		c.overrideService,
		c.timeRuleService,
		evaluator,
		decisionRepo,
		time.Duration(cfg.Policy.TimeoutMS)*time.Millisecond,
		log,
	)

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedulerManager.RegisterGovernanceSweepJobs(
		scheduler.SweepJobFunc(c.allowlistService.SweepExpired),
		scheduler.SweepJobFunc(c.emergencyService.SweepLapsed),
		scheduler.SweepJobFunc(c.overrideService.SweepExpired),
		scheduler.SweepJobFunc(c.consentService.SweepExpired),
	); err != nil {
		return nil, fmt.Errorf("failed to register sweep jobs: %w", err)
	}
	c.scheduler = schedulerManager

	c.engine = c.buildEngine()

	return c, nil
}

// Engine returns the configured gin engine.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// Start launches the background scheduler and the HTTP server. It returns
// once the listener is running; serve errors are reported on the channel.
func (c *Container) Start() <-chan error {
	c.scheduler.Start()

	c.httpServer = &http.Server{
		Addr:         c.cfg.Server.GetAddr(),
		Handler:      c.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	goroutine.Go(c.log, "http-server", func() {
		c.log.Infow("server starting",
			"address", c.cfg.Server.GetAddr(),
			"mode", c.cfg.Server.Mode,
		)
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	})

	return errCh
}

// Shutdown stops the HTTP server and the scheduler, waiting for in-flight
// work to finish or the context to expire.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			c.log.Errorw("http server shutdown failed", "error", err)
			firstErr = err
		}
	}

	if err := c.scheduler.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
