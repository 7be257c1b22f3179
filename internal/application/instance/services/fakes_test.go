package services

import (
	"context"
	"slices"
	"sync"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
)

// fakeControlPlane answers deployment status from statusFunc; every other
// operation is unused by this package.
type fakeControlPlane struct {
	controlplane.API

	mu         sync.Mutex
	calls      int
	statusFunc func(ctx context.Context, deploymentID string) (*controlplane.Deployment, error)
}

func (f *fakeControlPlane) GetDeploymentStatus(ctx context.Context, deploymentID string) (*controlplane.Deployment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.statusFunc(ctx, deploymentID)
}

func (f *fakeControlPlane) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// statusSequence returns the given remote statuses in order, repeating the last.
func statusSequence(statuses ...string) func(context.Context, string) (*controlplane.Deployment, error) {
	var mu sync.Mutex
	i := 0
	return func(_ context.Context, id string) (*controlplane.Deployment, error) {
		mu.Lock()
		defer mu.Unlock()
		s := statuses[i]
		if i < len(statuses)-1 {
			i++
		}
		return &controlplane.Deployment{ID: id, Status: s, StaticURL: "bot.up.app"}, nil
	}
}

// memoryInstanceRepo stores snapshots so callers never share an aggregate,
// and enforces the same version check as the SQL repository.
type memoryInstanceRepo struct {
	mu        sync.Mutex
	nextID    uint
	rows      map[uint]*instance.Instance
	updates   int
	updateErr error
}

func newMemoryInstanceRepo() *memoryInstanceRepo {
	return &memoryInstanceRepo{rows: make(map[uint]*instance.Instance)}
}

func snapshot(inst *instance.Instance) *instance.Instance {
	clone, _ := instance.ReconstructInstance(instance.InstanceReconstructParams{
		ID:                    inst.ID(),
		SID:                   inst.SID(),
		SubscriptionID:        inst.SubscriptionID(),
		OwnerID:               inst.OwnerID(),
		Name:                  inst.Name(),
		ProjectID:             inst.ProjectID(),
		ServiceID:             inst.ServiceID(),
		EnvironmentID:         inst.EnvironmentID(),
		DeploymentID:          inst.DeploymentID(),
		Status:                inst.Status(),
		PublicURL:             inst.PublicURL(),
		ErrorMessage:          inst.ErrorMessage(),
		NeedsAttention:        inst.NeedsAttention(),
		Variables:             inst.Variables(),
		Logs:                  inst.Logs(),
		DeploymentStartedAt:   inst.DeploymentStartedAt(),
		DeploymentUpdatedAt:   inst.DeploymentUpdatedAt(),
		DeploymentCompletedAt: inst.DeploymentCompletedAt(),
		Version:               inst.Version(),
		CreatedAt:             inst.CreatedAt(),
		UpdatedAt:             inst.UpdatedAt(),
	})
	return clone
}

func (r *memoryInstanceRepo) Create(ctx context.Context, inst *instance.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if err := inst.SetID(r.nextID); err != nil {
		return err
	}
	r.rows[inst.ID()] = snapshot(inst)
	return nil
}

func (r *memoryInstanceRepo) Update(ctx context.Context, inst *instance.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.rows[inst.ID()]
	if !ok || stored.Version() != inst.Version() {
		return instance.ErrConcurrentModification
	}
	inst.SetVersion(inst.Version() + 1)
	r.rows[inst.ID()] = snapshot(inst)
	r.updates++
	return nil
}

func (r *memoryInstanceRepo) GetByID(ctx context.Context, id uint) (*instance.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return snapshot(stored), nil
}

func (r *memoryInstanceRepo) GetBySID(ctx context.Context, sid string) (*instance.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.rows {
		if stored.SID() == sid {
			return snapshot(stored), nil
		}
	}
	return nil, nil
}

func (r *memoryInstanceRepo) CountActiveBySubscription(ctx context.Context, subscriptionID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, stored := range r.rows {
		if stored.SubscriptionID() == subscriptionID && stored.Status() != vo.StatusDeleted {
			n++
		}
	}
	return n, nil
}

func (r *memoryInstanceRepo) ListByStatuses(ctx context.Context, statuses ...vo.LifecycleStatus) ([]*instance.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*instance.Instance
	for _, stored := range r.rows {
		if slices.Contains(statuses, stored.Status()) {
			out = append(out, snapshot(stored))
		}
	}
	slices.SortFunc(out, func(a, b *instance.Instance) int { return int(a.ID()) - int(b.ID()) })
	return out, nil
}

func (r *memoryInstanceRepo) CountByStatus(ctx context.Context) (map[vo.LifecycleStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[vo.LifecycleStatus]int64)
	for _, stored := range r.rows {
		counts[stored.Status()]++
	}
	return counts, nil
}

func (r *memoryInstanceRepo) CountNeedingAttention(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, stored := range r.rows {
		if stored.NeedsAttention() {
			n++
		}
	}
	return n, nil
}

func (r *memoryInstanceRepo) status(id uint) vo.LifecycleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].Status()
}

type recordingActivator struct {
	mu        sync.Mutex
	activated []uint
	err       error
}

func (a *recordingActivator) Activate(ctx context.Context, subscriptionID uint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activated = append(a.activated, subscriptionID)
	return a.err
}

func (a *recordingActivator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.activated)
}
