package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/goroutine"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// ErrCheckInProgress is returned when the instance is already being checked.
var ErrCheckInProgress = errors.New("instance check already in progress")

// SubscriptionActivator activates the subscription that owns a newly running instance.
type SubscriptionActivator interface {
	Activate(ctx context.Context, subscriptionID uint) error
}

type MonitorOptions struct {
	TrackInterval    time.Duration
	AlertThreshold   time.Duration
	CheckTimeout     time.Duration
	SweepConcurrency int
}

// CheckResult is the outcome of one status check.
type CheckResult struct {
	InstanceID     uint
	InstanceSID    string
	Previous       vo.LifecycleStatus
	Current        vo.LifecycleStatus
	RemoteStatus   string
	Outcome        instance.ApplyResult
	NeedsAttention bool
}

type SweepResult struct {
	Checked     int
	Skipped     int
	Failed      int
	Transitions int
	Duration    time.Duration
}

type MonitorStats struct {
	Total            int64
	Running          int64
	Failed           int64
	Pending          int64
	NeedingAttention int64
	Tracked          int
}

// DeploymentMonitor drives persisted instances through the remote deployment
// lifecycle, either with a ticker per instance or with periodic sweeps.
// Both paths share checkInstance and never check one instance concurrently.
type DeploymentMonitor struct {
	instanceRepo instance.InstanceRepository
	api          controlplane.API
	activator    SubscriptionActivator
	opts         MonitorOptions
	logger       logger.Interface
	now          func() time.Time

	mu       sync.Mutex
	trackers map[uint]context.CancelFunc
	inFlight map[uint]struct{}
}

func NewDeploymentMonitor(
	instanceRepo instance.InstanceRepository,
	api controlplane.API,
	activator SubscriptionActivator,
	opts MonitorOptions,
	logger logger.Interface,
) *DeploymentMonitor {
	if opts.SweepConcurrency <= 0 {
		opts.SweepConcurrency = 1
	}
	return &DeploymentMonitor{
		instanceRepo: instanceRepo,
		api:          api,
		activator:    activator,
		opts:         opts,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		trackers:     make(map[uint]context.CancelFunc),
		inFlight:     make(map[uint]struct{}),
	}
}

// CheckInstance fetches, maps and applies the remote status of inst, then
// persists it and runs the transition side effects.
func (m *DeploymentMonitor) CheckInstance(ctx context.Context, inst *instance.Instance) (*CheckResult, error) {
	if !m.begin(inst.ID()) {
		return nil, ErrCheckInProgress
	}
	defer m.end(inst.ID())
	return m.checkInstance(ctx, inst)
}

func (m *DeploymentMonitor) checkInstance(ctx context.Context, inst *instance.Instance) (*CheckResult, error) {
	result := &CheckResult{
		InstanceID:  inst.ID(),
		InstanceSID: inst.SID(),
		Previous:    inst.Status(),
		Current:     inst.Status(),
	}
	if inst.Status().IsTerminal() {
		result.Outcome = instance.IgnoredTerminal
		return result, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.opts.CheckTimeout)
	dep, err := m.api.GetDeploymentStatus(checkCtx, inst.DeploymentID())
	cancel()
	if err != nil {
		if controlplane.IsUnauthorized(err) {
			instanceChecksTotal.WithLabelValues(checkOutcomeUnauthorized).Inc()
			m.logger.Errorw("control plane rejected the API token",
				"instance_id", inst.ID(),
				"deployment_id", inst.DeploymentID(),
				"error", err)
			return nil, fmt.Errorf("failed to fetch deployment status for instance %s: %w", inst.SID(), err)
		}
		instanceChecksTotal.WithLabelValues(checkOutcomeError).Inc()
		m.logger.Warnw("failed to fetch deployment status",
			"instance_id", inst.ID(),
			"deployment_id", inst.DeploymentID(),
			"error", err)
		return nil, fmt.Errorf("failed to fetch deployment status for instance %s: %w", inst.SID(), err)
	}

	now := m.now()
	observed := MapRemoteStatus(dep.Status)
	outcome := inst.ApplyDeploymentStatus(observed, dep.Status, publicURL(dep.StaticURL), now)
	flagged := inst.FlagNeedsAttention(now, m.opts.AlertThreshold)

	result.RemoteStatus = dep.Status
	result.Outcome = outcome
	result.Current = inst.Status()
	result.NeedsAttention = inst.NeedsAttention()

	if outcome == instance.IgnoredRegression {
		m.logger.Warnw("ignoring out-of-order deployment status",
			"instance_id", inst.ID(),
			"current", result.Previous,
			"observed", observed,
			"remote_status", dep.Status)
	}
	if flagged {
		m.logger.Warnw("deployment needs attention",
			"instance_id", inst.ID(),
			"status", inst.Status(),
			"started_at", inst.DeploymentStartedAt())
	}

	if outcome != instance.Applied && !flagged {
		if outcome == instance.Unchanged {
			instanceChecksTotal.WithLabelValues(checkOutcomeUnchanged).Inc()
		} else {
			instanceChecksTotal.WithLabelValues(checkOutcomeIgnored).Inc()
		}
		return result, nil
	}

	if err := m.instanceRepo.Update(ctx, inst); err != nil {
		if errors.Is(err, instance.ErrConcurrentModification) {
			instanceChecksTotal.WithLabelValues(checkOutcomeConflict).Inc()
			m.logger.Infow("instance changed during check, result discarded", "instance_id", inst.ID())
			return nil, err
		}
		instanceChecksTotal.WithLabelValues(checkOutcomeError).Inc()
		return nil, fmt.Errorf("failed to persist instance %s: %w", inst.SID(), err)
	}
	instanceChecksTotal.WithLabelValues(checkOutcomeApplied).Inc()

	if outcome == instance.Applied {
		m.logger.Infow("instance status changed",
			"instance_id", inst.ID(),
			"from", result.Previous,
			"to", result.Current,
			"remote_status", dep.Status)
		m.onTransition(ctx, inst)
	}

	return result, nil
}

// onTransition runs once per persisted transition; the version check in
// Update guarantees a transition into running is only persisted once.
func (m *DeploymentMonitor) onTransition(ctx context.Context, inst *instance.Instance) {
	switch {
	case inst.Status() == vo.StatusRunning:
		if m.activator != nil {
			if err := m.activator.Activate(ctx, inst.SubscriptionID()); err != nil {
				m.logger.Errorw("failed to activate subscription for running instance",
					"instance_id", inst.ID(),
					"subscription_id", inst.SubscriptionID(),
					"error", err)
			}
		}
		m.StopMonitoring(inst.ID())
	case inst.Status().IsFailure():
		m.logger.Errorw("deployment failed",
			"instance_id", inst.ID(),
			"status", inst.Status(),
			"error_message", inst.ErrorMessage())
		m.StopMonitoring(inst.ID())
	}
}

// Track starts a ticker for one instance. Tracking an instance twice is a no-op.
func (m *DeploymentMonitor) Track(instanceID uint) {
	m.mu.Lock()
	if _, ok := m.trackers[instanceID]; ok {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.trackers[instanceID] = cancel
	trackedInstances.Set(float64(len(m.trackers)))
	m.mu.Unlock()

	goroutine.SafeGo(m.logger, "instance-tracker", func() {
		ticker := time.NewTicker(m.opts.TrackInterval)
		defer ticker.Stop()

		m.trackTick(ctx, instanceID)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.trackTick(ctx, instanceID)
			}
		}
	})

	m.logger.Infow("instance tracking started", "instance_id", instanceID, "interval", m.opts.TrackInterval)
}

func (m *DeploymentMonitor) trackTick(trackerCtx context.Context, instanceID uint) {
	// The check itself is not bound to the tracker so that StopMonitoring
	// lets an in-flight call finish and be applied.
	ctx := context.Background()

	inst, err := m.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		m.logger.Warnw("tracker failed to load instance", "instance_id", instanceID, "error", err)
		return
	}
	if inst == nil || inst.Status().IsTerminal() {
		m.StopMonitoring(instanceID)
		return
	}
	if trackerCtx.Err() != nil {
		return
	}

	if _, err := m.CheckInstance(ctx, inst); err != nil && !errors.Is(err, ErrCheckInProgress) {
		m.logger.Debugw("tracker check failed", "instance_id", instanceID, "error", err)
	}
}

// StopMonitoring cancels the tracker of instanceID and reports whether one existed.
func (m *DeploymentMonitor) StopMonitoring(instanceID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.trackers[instanceID]
	if !ok {
		return false
	}
	cancel()
	delete(m.trackers, instanceID)
	trackedInstances.Set(float64(len(m.trackers)))
	return true
}

// GetMonitoredInstances returns the tracked instance IDs in ascending order.
func (m *DeploymentMonitor) GetMonitoredInstances() []uint {
	m.mu.Lock()
	ids := make([]uint, 0, len(m.trackers))
	for id := range m.trackers {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListMonitored loads the tracked instances. Trackers whose record has
// disappeared are left out.
func (m *DeploymentMonitor) ListMonitored(ctx context.Context) ([]*instance.Instance, error) {
	ids := m.GetMonitoredInstances()
	out := make([]*instance.Instance, 0, len(ids))
	for _, id := range ids {
		inst, err := m.instanceRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load instance %d: %w", id, err)
		}
		if inst != nil {
			out = append(out, inst)
		}
	}
	return out, nil
}

// StopMonitoringBySID resolves sid and cancels its tracker.
func (m *DeploymentMonitor) StopMonitoringBySID(ctx context.Context, sid string) (bool, error) {
	inst, err := m.instanceRepo.GetBySID(ctx, sid)
	if err != nil {
		return false, fmt.Errorf("failed to load instance: %w", err)
	}
	if inst == nil {
		return false, fmt.Errorf("%w: %s", instance.ErrInstanceNotFound, sid)
	}
	stopped := m.StopMonitoring(inst.ID())
	if stopped {
		m.logger.Infow("stopped monitoring instance", "instance_id", sid)
	}
	return stopped, nil
}

// Shutdown stops every tracker.
func (m *DeploymentMonitor) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cancel := range m.trackers {
		cancel()
		delete(m.trackers, id)
	}
	trackedInstances.Set(0)
}

// Sweep checks every non-terminal instance. Instances already being checked
// are skipped and one failing check never aborts the others.
func (m *DeploymentMonitor) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()

	pending, err := m.instanceRepo.ListByStatuses(ctx, vo.PendingStatuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending instances: %w", err)
	}

	var checked, failed, transitions atomic.Int64
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.SweepConcurrency)

	for _, inst := range pending {
		if !m.begin(inst.ID()) {
			skipped++
			continue
		}
		inst := inst
		g.Go(func() error {
			defer m.end(inst.ID())

			res, err := m.checkInstance(gctx, inst)
			checked.Add(1)
			if err != nil {
				failed.Add(1)
				return nil
			}
			if res.Outcome == instance.Applied {
				transitions.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	sweepDuration.Observe(elapsed.Seconds())

	result := &SweepResult{
		Checked:     int(checked.Load()),
		Skipped:     skipped,
		Failed:      int(failed.Load()),
		Transitions: int(transitions.Load()),
		Duration:    elapsed,
	}
	if len(pending) > 0 {
		m.logger.Infow("deployment sweep completed",
			"pending", len(pending),
			"checked", result.Checked,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"transitions", result.Transitions,
			"duration", elapsed)
	}
	return result, nil
}

// ManualCheck runs a full sweep when sid is empty, otherwise checks one instance.
func (m *DeploymentMonitor) ManualCheck(ctx context.Context, sid string) (*SweepResult, *CheckResult, error) {
	if sid == "" {
		res, err := m.Sweep(ctx)
		return res, nil, err
	}

	inst, err := m.instanceRepo.GetBySID(ctx, sid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load instance: %w", err)
	}
	if inst == nil {
		return nil, nil, fmt.Errorf("%w: %s", instance.ErrInstanceNotFound, sid)
	}

	res, err := m.CheckInstance(ctx, inst)
	return nil, res, err
}

// GetStats summarises persisted instances. Deleted instances are excluded
// from the total.
func (m *DeploymentMonitor) GetStats(ctx context.Context) (*MonitorStats, error) {
	counts, err := m.instanceRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count instances: %w", err)
	}
	attention, err := m.instanceRepo.CountNeedingAttention(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count instances needing attention: %w", err)
	}

	stats := &MonitorStats{NeedingAttention: attention}
	for status, n := range counts {
		instancesByStatus.WithLabelValues(status.String()).Set(float64(n))
		if status == vo.StatusDeleted {
			continue
		}
		stats.Total += n
		switch {
		case status == vo.StatusRunning:
			stats.Running += n
		case status.IsFailure():
			stats.Failed += n
		case status.IsPending():
			stats.Pending += n
		}
	}

	m.mu.Lock()
	stats.Tracked = len(m.trackers)
	m.mu.Unlock()

	return stats, nil
}

// Resume re-tracks persisted non-terminal instances after a restart.
func (m *DeploymentMonitor) Resume(ctx context.Context) (int, error) {
	pending, err := m.instanceRepo.ListByStatuses(ctx, vo.PendingStatuses...)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending instances: %w", err)
	}
	for _, inst := range pending {
		m.Track(inst.ID())
	}
	if len(pending) > 0 {
		m.logger.Infow("resumed tracking of pending instances", "count", len(pending))
	}
	return len(pending), nil
}

func (m *DeploymentMonitor) begin(instanceID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[instanceID]; busy {
		return false
	}
	m.inFlight[instanceID] = struct{}{}
	return true
}

func (m *DeploymentMonitor) end(instanceID uint) {
	m.mu.Lock()
	delete(m.inFlight, instanceID)
	m.mu.Unlock()
}
