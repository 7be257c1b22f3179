// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// DeploymentSweeper checks every pending deployment once.
type DeploymentSweeper interface {
	Sweep(ctx context.Context) (*services.SweepResult, error)
}

// StatsCollector refreshes the instance gauges from persisted state.
type StatsCollector interface {
	GetStats(ctx context.Context) (*services.MonitorStats, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance. Jobs run in UTC.
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

// ========================================
// Deployment Monitor Jobs
// ========================================

// RegisterMonitorJobs registers the background deployment sweep. A sweep
// that overruns its interval delays the next one instead of overlapping it.
func (m *SchedulerManager) RegisterMonitorJobs(sweeper DeploymentSweeper, interval, sweepTimeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			defer cancel()
			m.sweepDeployments(ctx, sweeper)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("monitor", "sweep"),
		gocron.WithName("deployment-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered deployment monitor jobs", "interval", interval)
	return nil
}

func (m *SchedulerManager) sweepDeployments(ctx context.Context, sweeper DeploymentSweeper) {
	m.logger.Debugw("deployment sweep started")

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		m.logger.Errorw("deployment sweep failed", "error", err)
		return
	}

	if result.Failed > 0 {
		m.logger.Warnw("deployment sweep finished with failed checks",
			"checked", result.Checked,
			"failed", result.Failed,
			"duration", result.Duration,
		)
	}
}

// RegisterStatsJobs refreshes instance gauges every interval.
func (m *SchedulerManager) RegisterStatsJobs(collector StatsCollector, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := collector.GetStats(ctx); err != nil {
				m.logger.Errorw("failed to refresh instance stats", "error", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("monitor", "stats"),
		gocron.WithName("instance-stats"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered instance stats job", "interval", interval)
	return nil
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
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
