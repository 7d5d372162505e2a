// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/warden-sh/warden/internal/shared/logger"
)

// SweepJob is a periodic maintenance task that expires stale governance
// state. Each Execute call returns the number of rows it flipped.
type SweepJob interface {
	Execute(ctx context.Context) (int64, error)
}

// SweepJobFunc adapts a function to the SweepJob interface.
type SweepJobFunc func(ctx context.Context) (int64, error)

func (f SweepJobFunc) Execute(ctx context.Context) (int64, error) { return f(ctx) }

// namedSweep pairs a job with the label used in logs.
type namedSweep struct {
	name string
	job  SweepJob
}

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterGovernanceSweepJobs registers the periodic expiry sweeps:
// - deactivate allowlist entries past their expiry
// - deactivate emergency overrides past their window
// - expire unredeemed per-request overrides
// - expire undecided consent requests
// The sweeps keep stored state consistent for reporting; the decision
// pipeline itself never trusts a stale active flag.
func (m *SchedulerManager) RegisterGovernanceSweepJobs(
	allowlistSweep SweepJob,
	emergencySweep SweepJob,
	overrideSweep SweepJob,
	consentSweep SweepJob,
) error {
	sweeps := []namedSweep{
		{"allowlist", allowlistSweep},
		{"emergency", emergencySweep},
		{"override", overrideSweep},
		{"consent", consentSweep},
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			m.runSweeps(ctx, sweeps)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("governance", "sweep"),
		gocron.WithName("governance-sweeper"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered governance sweep jobs", "interval", "1m")
	return nil
}

func (m *SchedulerManager) runSweeps(ctx context.Context, sweeps []namedSweep) {
	m.logger.Debugw("governance sweep started")

	startTime := time.Now()
	for _, s := range sweeps {
		count, err := s.job.Execute(ctx)
		if err != nil {
			m.logger.Errorw("governance sweep failed",
				"sweep", s.name,
				"error", err,
			)
			continue
		}
		if count > 0 {
			m.logger.Infow("governance sweep expired stale rows",
				"sweep", s.name,
				"count", count,
			)
		}
	}

	m.logger.Debugw("governance sweep finished", "duration", time.Since(startTime))
}

// Start starts the scheduler. Safe to call more than once.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
