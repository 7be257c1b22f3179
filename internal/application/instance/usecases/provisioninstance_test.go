package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	subvo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/cache"
	apperrors "github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

type provisionFixture struct {
	repo     *mockInstanceRepository
	api      *mockControlPlane
	composer *mockComposer
	lock     *fakeLock
	tracker  *fakeTracker
	uc       *ProvisionInstanceUseCase
}

func newProvisionFixture() *provisionFixture {
	f := &provisionFixture{
		repo:     new(mockInstanceRepository),
		api:      new(mockControlPlane),
		composer: new(mockComposer),
		lock:     newFakeLock(),
		tracker:  &fakeTracker{},
	}
	f.uc = NewProvisionInstanceUseCase(f.repo, f.api, f.composer, f.lock, f.tracker, ProvisioningSettings{
		NamePrefix: "hatch",
		LockTTL:    time.Minute,
	}, logger.NewNopLogger())
	f.uc.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return f
}

func provisionCmd() ProvisionCommand {
	return ProvisionCommand{
		TemplateProjectID: "tpl-proj",
		TemplateServiceID: "tpl-svc",
		OwnerID:           42,
		SubscriptionID:    7,
		PlanTier:          subvo.PlanTierPro,
		CustomVariables:   map[string]string{"LOG_LEVEL": "debug", "FEATURE_X": "custom"},
	}
}

var (
	newServiceRef = controlplane.ServiceRef{ProjectID: "proj-new", EnvironmentID: "env-new", ServiceID: "svc-new"}
	templateRef   = controlplane.ServiceRef{ProjectID: "tpl-proj", EnvironmentID: "tpl-env", ServiceID: "tpl-svc"}
)

// expectHappyPath wires every remote call of a successful run.
func (f *provisionFixture) expectHappyPath() {
	ctx := mock.Anything
	f.repo.On("CountActiveBySubscription", ctx, uint(7)).Return(int64(0), nil)
	f.composer.On("Compose", ctx, mock.MatchedBy(func(in services.ComposeInput) bool {
		return in.InstanceName == "hatch-pro-1700000000000" && in.SubscriptionID == 7
	})).Return(map[string]string{"INSTANCE_NAME": "hatch-pro-1700000000000", "FEATURE_X": "composed", "TELEGRAM_TOKEN": "tg"}, nil)
	f.api.On("GetProject", ctx, "tpl-proj").Return(&controlplane.Project{
		ID:           "tpl-proj",
		Environments: []controlplane.Environment{{ID: "tpl-env", Name: "production"}},
	}, nil)
	f.api.On("GetService", ctx, "tpl-svc").Return(&controlplane.Service{
		ID: "tpl-svc", Name: "bot", ProjectID: "tpl-proj", Source: controlplane.ServiceSource{Repo: "acme/bot"},
	}, nil)
	f.api.On("CreateProject", ctx, "hatch-pro-1700000000000").Return(&controlplane.Project{ID: "proj-new"}, nil)
	f.api.On("CreateEnvironment", ctx, "proj-new", "production").Return(&controlplane.Environment{ID: "env-new", Name: "production"}, nil)
	f.api.On("GetServiceVariables", ctx, templateRef).Return(map[string]string{"FEATURE_X": "baseline", "BASE_ONLY": "1"}, nil)
	f.api.On("CreateService", ctx, controlplane.CreateServiceInput{
		ProjectID: "proj-new", Name: "bot", Source: controlplane.ServiceSource{Repo: "acme/bot"},
	}).Return(&controlplane.Service{ID: "svc-new", ProjectID: "proj-new"}, nil)
	f.api.On("SetServiceVariables", ctx, newServiceRef, mock.Anything).Return(nil)
	f.api.On("TriggerRedeploy", ctx, "svc-new", "env-new").Return("dep-new", nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*instance.Instance")).Return(nil)
}

func TestProvision_Success(t *testing.T) {
	f := newProvisionFixture()
	f.expectHappyPath()

	result, err := f.uc.Execute(context.Background(), provisionCmd())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "proj-new", result.ProjectID)
	assert.Equal(t, "env-new", result.EnvironmentID)
	assert.Equal(t, "svc-new", result.ServiceID)
	assert.Equal(t, "dep-new", result.DeploymentID)
	assert.True(t, strings.HasPrefix(result.InstanceSID, "inst_"))
	assert.Equal(t, []string{
		StepValidateTemplate, StepCreateProject, StepCreateEnvironment, StepFetchTemplateVariables,
		StepMergeVariables, StepCreateService, StepSetVariables, StepTriggerDeploy, StepPersistInstance,
	}, result.CompletedSteps)
	assert.Equal(t, []uint{101}, f.tracker.tracked)
	assert.Equal(t, 1, f.lock.released)
	assert.Equal(t, len(result.CompletedSteps)-1, f.lock.extends)

	f.api.AssertNotCalled(t, "DeleteProject", mock.Anything, mock.Anything)
	f.api.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestProvision_MergePrecedence(t *testing.T) {
	f := newProvisionFixture()
	f.expectHappyPath()

	_, err := f.uc.Execute(context.Background(), provisionCmd())
	require.NoError(t, err)

	var pushed map[string]string
	for _, call := range f.api.Calls {
		if call.Method == "SetServiceVariables" {
			pushed = call.Arguments.Get(2).(map[string]string)
		}
	}
	require.NotNil(t, pushed)
	assert.Equal(t, "custom", pushed["FEATURE_X"])
	assert.Equal(t, "1", pushed["BASE_ONLY"])
	assert.Equal(t, "debug", pushed["LOG_LEVEL"])
	assert.Equal(t, "tg", pushed["TELEGRAM_TOKEN"])

	created := f.repo.Calls[len(f.repo.Calls)-1].Arguments.Get(1).(*instance.Instance)
	assert.Equal(t, "***", created.Variables()["TELEGRAM_TOKEN"])
	assert.Equal(t, vo.StatusInitializing, created.Status())
}

func TestProvision_CompensatesInReverse(t *testing.T) {
	f := newProvisionFixture()
	ctx := mock.Anything
	f.repo.On("CountActiveBySubscription", ctx, uint(7)).Return(int64(0), nil)
	f.composer.On("Compose", ctx, mock.Anything).Return(map[string]string{}, nil)
	f.api.On("GetProject", ctx, "tpl-proj").Return(&controlplane.Project{
		ID: "tpl-proj", Environments: []controlplane.Environment{{ID: "tpl-env", Name: "production"}},
	}, nil)
	f.api.On("GetService", ctx, "tpl-svc").Return(&controlplane.Service{ID: "tpl-svc", Name: "bot"}, nil)
	f.api.On("CreateProject", ctx, mock.Anything).Return(&controlplane.Project{
		ID: "proj-new", Environments: []controlplane.Environment{{ID: "env-new", Name: "production"}},
	}, nil)
	f.api.On("GetServiceVariables", ctx, templateRef).Return(map[string]string{}, nil)
	f.api.On("CreateService", ctx, mock.Anything).Return(&controlplane.Service{ID: "svc-new"}, nil)
	f.api.On("SetServiceVariables", ctx, newServiceRef, mock.Anything).Return(nil)
	f.api.On("TriggerRedeploy", ctx, "svc-new", "env-new").Return("", &controlplane.Error{Operation: "TriggerRedeploy", Message: "quota exceeded"})
	f.api.On("DeleteService", ctx, "svc-new").Return(nil)
	f.api.On("DeleteProject", ctx, "proj-new").Return(nil)

	result, err := f.uc.Execute(context.Background(), provisionCmd())

	var perr *ProvisioningError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, StepTriggerDeploy, perr.Step)
	var cpErr *controlplane.Error
	assert.True(t, errors.As(err, &cpErr))

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, StepTriggerDeploy, result.FailedStep)
	assert.True(t, result.RolledBack)
	assert.Contains(t, result.ErrorDetails, "quota exceeded")

	var order []string
	for _, call := range f.api.Calls {
		if strings.HasPrefix(call.Method, "Delete") {
			order = append(order, call.Method)
		}
	}
	assert.Equal(t, []string{"DeleteService", "DeleteProject"}, order)
	f.api.AssertNotCalled(t, "CreateEnvironment", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.tracker.tracked)
}

func TestProvision_CompensationFailureIsReported(t *testing.T) {
	f := newProvisionFixture()
	ctx := mock.Anything
	f.repo.On("CountActiveBySubscription", ctx, uint(7)).Return(int64(0), nil)
	f.composer.On("Compose", ctx, mock.Anything).Return(map[string]string{}, nil)
	f.api.On("GetProject", ctx, "tpl-proj").Return(&controlplane.Project{
		ID: "tpl-proj", Environments: []controlplane.Environment{{ID: "tpl-env", Name: "production"}},
	}, nil)
	f.api.On("GetService", ctx, "tpl-svc").Return(&controlplane.Service{ID: "tpl-svc"}, nil)
	f.api.On("CreateProject", ctx, mock.Anything).Return(&controlplane.Project{ID: "proj-new"}, nil)
	f.api.On("CreateEnvironment", ctx, "proj-new", "production").Return(nil, errors.New("env boom"))
	f.api.On("DeleteProject", ctx, "proj-new").Return(errors.New("delete boom"))

	result, err := f.uc.Execute(context.Background(), provisionCmd())
	require.Error(t, err)
	assert.Equal(t, StepCreateEnvironment, result.FailedStep)
	assert.Equal(t, []string{StepValidateTemplate, StepCreateProject}, result.CompletedSteps)
	assert.False(t, result.RolledBack)
}

func TestProvision_LostLeaseAbortsBeforeNextWrite(t *testing.T) {
	f := newProvisionFixture()
	f.expectHappyPath()
	// extends run before create_project, create_environment,
	// fetch_template_variables, merge_variables, then create_service
	f.lock.extendErr = func(n int) error {
		if n == 5 {
			return fmt.Errorf("lock:provision:7: %w", cache.ErrLeaseLost)
		}
		return nil
	}
	f.api.On("DeleteProject", mock.Anything, "proj-new").Return(nil)

	result, err := f.uc.Execute(context.Background(), provisionCmd())

	var perr *ProvisioningError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, StepCreateService, perr.Step)
	assert.True(t, errors.Is(err, cache.ErrLeaseLost))
	assert.False(t, IsProvisioningFailure(err))
	assert.True(t, result.RolledBack)

	f.api.AssertNotCalled(t, "CreateService", mock.Anything, mock.Anything)
	f.api.AssertCalled(t, "DeleteProject", mock.Anything, "proj-new")
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.lock.released)
}

func TestProvision_LockBackendErrorDuringExtendIsTolerated(t *testing.T) {
	f := newProvisionFixture()
	f.expectHappyPath()
	f.lock.extendErr = func(n int) error { return errors.New("redis: connection refused") }

	result, err := f.uc.Execute(context.Background(), provisionCmd())
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestProvision_ValidateTemplateFailureMakesNoWrites(t *testing.T) {
	f := newProvisionFixture()
	ctx := mock.Anything
	f.repo.On("CountActiveBySubscription", ctx, uint(7)).Return(int64(0), nil)
	f.composer.On("Compose", ctx, mock.Anything).Return(map[string]string{}, nil)
	f.api.On("GetProject", ctx, "tpl-proj").Return(nil, &controlplane.Error{Operation: "GetProject", Message: "Project not found", HTTPStatus: 404})

	result, err := f.uc.Execute(context.Background(), provisionCmd())

	var perr *ProvisioningError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, StepValidateTemplate, perr.Step)
	assert.True(t, controlplane.IsNotFound(err))
	assert.Empty(t, result.CompletedSteps)
	assert.True(t, result.RolledBack)
	f.api.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestProvision_PreflightFailures(t *testing.T) {
	t.Run("instance limit", func(t *testing.T) {
		f := newProvisionFixture()
		f.repo.On("CountActiveBySubscription", mock.Anything, uint(7)).Return(int64(5), nil)

		result, err := f.uc.Execute(context.Background(), provisionCmd())
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, instance.ErrInstanceLimitReached))
		assert.Empty(t, f.api.Calls)
		assert.Equal(t, 1, f.lock.released)
	})

	t.Run("configuration error", func(t *testing.T) {
		f := newProvisionFixture()
		f.repo.On("CountActiveBySubscription", mock.Anything, uint(7)).Return(int64(0), nil)
		f.composer.On("Compose", mock.Anything, mock.Anything).Return(nil, &services.ConfigurationError{Reason: "too many channels"})

		result, err := f.uc.Execute(context.Background(), provisionCmd())
		assert.Nil(t, result)
		var cfgErr *services.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
		assert.Empty(t, f.api.Calls)
	})

	t.Run("already in progress", func(t *testing.T) {
		f := newProvisionFixture()
		lease, ok, err := f.lock.TryAcquire(context.Background(), provisioningLockKey(7), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		defer lease.Release()

		_, err = f.uc.Execute(context.Background(), provisionCmd())
		assert.True(t, errors.Is(err, instance.ErrProvisioningInProgress))
		f.repo.AssertNotCalled(t, "CountActiveBySubscription", mock.Anything, mock.Anything)
	})

	t.Run("lock backend down", func(t *testing.T) {
		f := newProvisionFixture()
		f.lock.err = errors.New("redis unavailable")

		_, err := f.uc.Execute(context.Background(), provisionCmd())
		assert.ErrorContains(t, err, "redis unavailable")
	})

	t.Run("invalid command", func(t *testing.T) {
		f := newProvisionFixture()
		cmd := provisionCmd()
		cmd.TemplateServiceID = ""

		_, err := f.uc.Execute(context.Background(), cmd)
		assert.True(t, apperrors.IsValidationError(err))
	})
}

func TestProvision_EnterpriseSkipsLimitCheck(t *testing.T) {
	f := newProvisionFixture()
	f.expectHappyPath()
	cmd := provisionCmd()
	cmd.PlanTier = subvo.PlanTierEnterprise
	cmd.InstanceName = "acme-bot"

	f.composer.ExpectedCalls = nil
	f.composer.On("Compose", mock.Anything, mock.Anything).Return(map[string]string{}, nil)
	f.api.On("CreateProject", mock.Anything, "acme-bot").Return(&controlplane.Project{ID: "proj-new"}, nil)

	result, err := f.uc.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "acme-bot", result.InstanceName)
	f.repo.AssertNotCalled(t, "CountActiveBySubscription", mock.Anything, mock.Anything)
}

func TestMergeVariables(t *testing.T) {
	merged := mergeVariables(
		map[string]string{"A": "base", "B": "base"},
		map[string]string{"B": "composed", "C": "composed"},
		map[string]string{"C": "custom"},
		nil,
	)
	assert.Equal(t, map[string]string{"A": "base", "B": "composed", "C": "custom"}, merged)
}
