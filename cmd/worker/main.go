package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/services"
	"github.com/warden-sh/warden/internal/infrastructure/config"
	"github.com/warden-sh/warden/internal/infrastructure/database"
	"github.com/warden-sh/warden/internal/infrastructure/repository"
	"github.com/warden-sh/warden/internal/infrastructure/scheduler"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// The worker runs the governance sweep jobs in a standalone process so the
// API server can be scaled without duplicating background work.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger()
	log.Infow("starting governance sweep worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Errorw("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	db := database.Get()
	allowlistSvc := services.NewAllowlistService(
		repository.NewAllowlistRepository(db, log),
		time.Duration(cfg.Governance.AllowlistCacheTTL)*time.Second,
		log,
	)
	emergencySvc := services.NewEmergencyService(
		repository.NewEmergencyRepository(db, log),
		time.Duration(cfg.Governance.EmergencyCacheTTL)*time.Second,
		log,
	)
	overrideSvc := services.NewOverrideService(repository.NewOverrideRequestRepository(db, log), nil, log)
	consentSvc := services.NewConsentService(repository.NewConsentRepository(db, log), log)

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		log.Errorw("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := manager.RegisterGovernanceSweepJobs(
		scheduler.SweepJobFunc(allowlistSvc.SweepExpired),
		scheduler.SweepJobFunc(emergencySvc.SweepLapsed),
		scheduler.SweepJobFunc(overrideSvc.SweepExpired),
		scheduler.SweepJobFunc(consentSvc.SweepExpired),
	); err != nil {
		log.Errorw("failed to register sweep jobs", "error", err)
		os.Exit(1)
	}

	manager.Start()
	log.Infow("governance sweep worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("shutting down worker", "signal", sig.String())
	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Infow("worker exited gracefully")
}
