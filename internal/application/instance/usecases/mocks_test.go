package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/cache"
)

type mockInstanceRepository struct {
	mock.Mock
}

func (m *mockInstanceRepository) Create(ctx context.Context, inst *instance.Instance) error {
	args := m.Called(ctx, inst)
	if args.Error(0) == nil && inst.ID() == 0 {
		_ = inst.SetID(101)
	}
	return args.Error(0)
}

func (m *mockInstanceRepository) Update(ctx context.Context, inst *instance.Instance) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *mockInstanceRepository) GetByID(ctx context.Context, id uint) (*instance.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instance.Instance), args.Error(1)
}

func (m *mockInstanceRepository) GetBySID(ctx context.Context, sid string) (*instance.Instance, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instance.Instance), args.Error(1)
}

func (m *mockInstanceRepository) CountActiveBySubscription(ctx context.Context, subscriptionID uint) (int64, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInstanceRepository) ListByStatuses(ctx context.Context, statuses ...vo.LifecycleStatus) ([]*instance.Instance, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).([]*instance.Instance), args.Error(1)
}

func (m *mockInstanceRepository) CountByStatus(ctx context.Context) (map[vo.LifecycleStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[vo.LifecycleStatus]int64), args.Error(1)
}

func (m *mockInstanceRepository) CountNeedingAttention(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockControlPlane struct {
	mock.Mock
}

func (m *mockControlPlane) GetProject(ctx context.Context, projectID string) (*controlplane.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Project), args.Error(1)
}

func (m *mockControlPlane) CreateProject(ctx context.Context, name string) (*controlplane.Project, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Project), args.Error(1)
}

func (m *mockControlPlane) GetService(ctx context.Context, serviceID string) (*controlplane.Service, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Service), args.Error(1)
}

func (m *mockControlPlane) GetProjectServices(ctx context.Context, projectID string) ([]controlplane.Service, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]controlplane.Service), args.Error(1)
}

func (m *mockControlPlane) CreateService(ctx context.Context, input controlplane.CreateServiceInput) (*controlplane.Service, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Service), args.Error(1)
}

func (m *mockControlPlane) CreateEnvironment(ctx context.Context, projectID, name string) (*controlplane.Environment, error) {
	args := m.Called(ctx, projectID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Environment), args.Error(1)
}

func (m *mockControlPlane) GetServiceVariables(ctx context.Context, ref controlplane.ServiceRef) (map[string]string, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockControlPlane) SetServiceVariables(ctx context.Context, ref controlplane.ServiceRef, variables map[string]string) error {
	args := m.Called(ctx, ref, variables)
	return args.Error(0)
}

func (m *mockControlPlane) TriggerRedeploy(ctx context.Context, serviceID, environmentID string) (string, error) {
	args := m.Called(ctx, serviceID, environmentID)
	return args.String(0), args.Error(1)
}

func (m *mockControlPlane) GetDeploymentStatus(ctx context.Context, deploymentID string) (*controlplane.Deployment, error) {
	args := m.Called(ctx, deploymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Deployment), args.Error(1)
}

func (m *mockControlPlane) DeleteService(ctx context.Context, serviceID string) error {
	args := m.Called(ctx, serviceID)
	return args.Error(0)
}

func (m *mockControlPlane) DeleteProject(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Compose(ctx context.Context, in services.ComposeInput) (map[string]string, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// fakeLock grants each key to one holder at a time.
type fakeLock struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released int
	extends  int
	// extendErr, when set, answers the nth Extend call (1-based).
	extendErr func(n int) error
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[string]bool)}
}

func (l *fakeLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (cache.Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return &fakeLease{lock: l, key: key}, true, nil
}

type fakeLease struct {
	lock *fakeLock
	key  string
	once sync.Once
}

func (f *fakeLease) Extend(ctx context.Context, ttl time.Duration) error {
	f.lock.mu.Lock()
	defer f.lock.mu.Unlock()
	f.lock.extends++
	if f.lock.extendErr != nil {
		return f.lock.extendErr(f.lock.extends)
	}
	return nil
}

func (f *fakeLease) Release() {
	f.once.Do(func() {
		f.lock.mu.Lock()
		defer f.lock.mu.Unlock()
		delete(f.lock.held, f.key)
		f.lock.released++
	})
}

type fakeTracker struct {
	tracked []uint
	stopped []uint
}

func (f *fakeTracker) Track(instanceID uint) {
	f.tracked = append(f.tracked, instanceID)
}

func (f *fakeTracker) StopMonitoring(instanceID uint) bool {
	f.stopped = append(f.stopped, instanceID)
	return true
}
