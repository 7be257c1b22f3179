package usecases

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	subvo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/cache"
	apperrors "github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

const (
	defaultNamePrefix      = "hatch"
	defaultEnvironmentName = "production"
)

type ProvisioningSettings struct {
	NamePrefix      string
	EnvironmentName string
	LockTTL         time.Duration
}

type ProvisionCommand struct {
	TemplateProjectID string
	TemplateServiceID string
	OwnerID           uint
	SubscriptionID    uint
	PlanTier          subvo.PlanTier
	// InstanceName is derived from the tier and the clock when empty.
	InstanceName string
	// ChannelCredentials are loaded from the subscription when nil.
	ChannelCredentials []*channel.ChannelCredential
	CustomVariables    map[string]string
}

type ProvisionResult struct {
	Success        bool
	InstanceID     uint
	InstanceSID    string
	InstanceName   string
	ProjectID      string
	EnvironmentID  string
	ServiceID      string
	DeploymentID   string
	CompletedSteps []string
	FailedStep     string
	ErrorDetails   string
	RolledBack     bool
}

type ProvisionInstanceUseCase struct {
	instanceRepo instance.InstanceRepository
	api          controlplane.API
	composer     EnvironmentComposer
	lock         ProvisioningLock
	tracker      InstanceTracker
	settings     ProvisioningSettings
	logger       logger.Interface
	now          func() time.Time
}

func NewProvisionInstanceUseCase(
	instanceRepo instance.InstanceRepository,
	api controlplane.API,
	composer EnvironmentComposer,
	lock ProvisioningLock,
	tracker InstanceTracker,
	settings ProvisioningSettings,
	logger logger.Interface,
) *ProvisionInstanceUseCase {
	if settings.NamePrefix == "" {
		settings.NamePrefix = defaultNamePrefix
	}
	if settings.EnvironmentName == "" {
		settings.EnvironmentName = defaultEnvironmentName
	}
	if settings.LockTTL <= 0 {
		settings.LockTTL = 2 * time.Minute
	}
	return &ProvisionInstanceUseCase{
		instanceRepo: instanceRepo,
		api:          api,
		composer:     composer,
		lock:         lock,
		tracker:      tracker,
		settings:     settings,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// provisionState carries remote identifiers between saga steps.
type provisionState struct {
	name            string
	templateProject *controlplane.Project
	templateService *controlplane.Service
	templateEnvID   string
	composed        map[string]string
	baseline        map[string]string
	merged          map[string]string
	project         *controlplane.Project
	environmentID   string
	service         *controlplane.Service
	deploymentID    string
	instance        *instance.Instance
}

// Execute clones the template into a new project for one subscription.
//
// Pre-flight failures (lock, limit, configuration, crypto) return a nil
// result and make no remote call. A failing saga step returns both a result
// describing the failure and a *ProvisioningError.
func (uc *ProvisionInstanceUseCase) Execute(ctx context.Context, cmd ProvisionCommand) (*ProvisionResult, error) {
	if err := uc.validate(cmd); err != nil {
		return nil, err
	}

	lease, acquired, err := uc.lock.TryAcquire(ctx, provisioningLockKey(cmd.SubscriptionID), uc.settings.LockTTL)
	if err != nil {
		uc.logger.Errorw("failed to acquire provisioning lock", "subscription_id", cmd.SubscriptionID, "error", err)
		return nil, fmt.Errorf("failed to acquire provisioning lock: %w", err)
	}
	if !acquired {
		uc.logger.Warnw("provisioning already in progress", "subscription_id", cmd.SubscriptionID)
		return nil, fmt.Errorf("%w: %d", instance.ErrProvisioningInProgress, cmd.SubscriptionID)
	}
	defer lease.Release()

	if err := uc.checkInstanceLimit(ctx, cmd); err != nil {
		return nil, err
	}

	st := &provisionState{name: cmd.InstanceName}
	if st.name == "" {
		st.name = fmt.Sprintf("%s-%s-%d", uc.settings.NamePrefix, cmd.PlanTier, uc.now().UnixMilli())
	}

	st.composed, err = uc.composer.Compose(ctx, services.ComposeInput{
		SubscriptionID: cmd.SubscriptionID,
		PlanTier:       cmd.PlanTier,
		OwnerID:        cmd.OwnerID,
		InstanceName:   st.name,
		CreatedAt:      uc.now(),
		Credentials:    cmd.ChannelCredentials,
	})
	if err != nil {
		uc.logger.Warnw("environment composition failed",
			"subscription_id", cmd.SubscriptionID,
			"error", err)
		return nil, err
	}

	uc.logger.Infow("provisioning instance",
		"subscription_id", cmd.SubscriptionID,
		"owner_id", cmd.OwnerID,
		"tier", cmd.PlanTier,
		"instance_name", st.name)

	outcome := runSaga(ctx, uc.logger, uc.steps(cmd, st), uc.renewLease(lease, cmd.SubscriptionID))

	result := &ProvisionResult{
		InstanceName:   st.name,
		CompletedSteps: outcome.completed,
		DeploymentID:   st.deploymentID,
	}
	if st.project != nil {
		result.ProjectID = st.project.ID
	}
	if st.service != nil {
		result.ServiceID = st.service.ID
	}
	result.EnvironmentID = st.environmentID

	if outcome.err != nil {
		result.FailedStep = outcome.failedStep
		result.ErrorDetails = outcome.err.Error()
		result.RolledBack = outcome.rolledBack
		uc.logger.Errorw("provisioning failed",
			"subscription_id", cmd.SubscriptionID,
			"step", outcome.failedStep,
			"completed_steps", outcome.completed,
			"rolled_back", outcome.rolledBack,
			"error", outcome.err)
		return result, &ProvisioningError{Step: outcome.failedStep, Err: outcome.err}
	}

	result.Success = true
	result.InstanceID = st.instance.ID()
	result.InstanceSID = st.instance.SID()

	if uc.tracker != nil {
		uc.tracker.Track(st.instance.ID())
	}

	uc.logger.Infow("instance provisioned",
		"subscription_id", cmd.SubscriptionID,
		"instance_id", result.InstanceSID,
		"project_id", result.ProjectID,
		"service_id", result.ServiceID,
		"deployment_id", result.DeploymentID)

	return result, nil
}

// renewLease extends the provisioning lease ahead of a saga step. A lost
// lease fails the step; a lock backend error is only logged, as the key
// cannot be acquired by anyone else while the backend is unreachable.
func (uc *ProvisionInstanceUseCase) renewLease(lease cache.Lease, subscriptionID uint) func(ctx context.Context, step string) error {
	return func(ctx context.Context, step string) error {
		err := lease.Extend(ctx, uc.settings.LockTTL)
		if err == nil {
			return nil
		}
		if errors.Is(err, cache.ErrLeaseLost) {
			uc.logger.Errorw("provisioning lock expired mid-saga",
				"subscription_id", subscriptionID,
				"step", step,
				"error", err)
			return fmt.Errorf("provisioning lock expired before %s: %w", step, err)
		}
		uc.logger.Warnw("failed to extend provisioning lock",
			"subscription_id", subscriptionID,
			"step", step,
			"error", err)
		return nil
	}
}

func (uc *ProvisionInstanceUseCase) validate(cmd ProvisionCommand) error {
	if cmd.SubscriptionID == 0 {
		return apperrors.NewValidationError("subscription ID is required")
	}
	if !cmd.PlanTier.IsValid() {
		return apperrors.NewValidationError("invalid plan tier", cmd.PlanTier.String())
	}
	if cmd.TemplateProjectID == "" || cmd.TemplateServiceID == "" {
		return apperrors.NewValidationError("template project and service IDs are required")
	}
	return nil
}

func (uc *ProvisionInstanceUseCase) checkInstanceLimit(ctx context.Context, cmd ProvisionCommand) error {
	limit, unbounded := cmd.PlanTier.InstanceLimit()
	if unbounded {
		return nil
	}

	count, err := uc.instanceRepo.CountActiveBySubscription(ctx, cmd.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to count instances: %w", err)
	}
	if count >= int64(limit) {
		uc.logger.Warnw("instance limit reached",
			"subscription_id", cmd.SubscriptionID,
			"tier", cmd.PlanTier,
			"count", count,
			"limit", limit)
		return fmt.Errorf("%w: %d of %d instances in use", instance.ErrInstanceLimitReached, count, limit)
	}
	return nil
}

func (uc *ProvisionInstanceUseCase) steps(cmd ProvisionCommand, st *provisionState) []sagaStep {
	envName := uc.settings.EnvironmentName

	return []sagaStep{
		{
			name: StepValidateTemplate,
			do: func(ctx context.Context) error {
				project, err := uc.api.GetProject(ctx, cmd.TemplateProjectID)
				if err != nil {
					return err
				}
				env, ok := project.EnvironmentByName(envName)
				if !ok {
					return fmt.Errorf("template project %s has no %s environment", project.ID, envName)
				}
				svc, err := uc.api.GetService(ctx, cmd.TemplateServiceID)
				if err != nil {
					return err
				}
				if svc.ProjectID != "" && svc.ProjectID != project.ID {
					return fmt.Errorf("template service %s does not belong to project %s", svc.ID, project.ID)
				}
				st.templateProject = project
				st.templateService = svc
				st.templateEnvID = env.ID
				return nil
			},
		},
		{
			name: StepCreateProject,
			do: func(ctx context.Context) error {
				project, err := uc.api.CreateProject(ctx, st.name)
				if err != nil {
					return err
				}
				st.project = project
				return nil
			},
			undo: func(ctx context.Context) error {
				return uc.api.DeleteProject(ctx, st.project.ID)
			},
		},
		{
			name: StepCreateEnvironment,
			do: func(ctx context.Context) error {
				if env, ok := st.project.EnvironmentByName(envName); ok {
					st.environmentID = env.ID
					return nil
				}
				env, err := uc.api.CreateEnvironment(ctx, st.project.ID, envName)
				if err != nil {
					return err
				}
				st.environmentID = env.ID
				return nil
			},
		},
		{
			name: StepFetchTemplateVariables,
			do: func(ctx context.Context) error {
				vars, err := uc.api.GetServiceVariables(ctx, controlplane.ServiceRef{
					ProjectID:     st.templateProject.ID,
					EnvironmentID: st.templateEnvID,
					ServiceID:     st.templateService.ID,
				})
				if err != nil {
					return err
				}
				st.baseline = vars
				return nil
			},
		},
		{
			name: StepMergeVariables,
			do: func(ctx context.Context) error {
				st.merged = mergeVariables(st.baseline, st.composed, cmd.CustomVariables)
				return nil
			},
		},
		{
			name: StepCreateService,
			do: func(ctx context.Context) error {
				svc, err := uc.api.CreateService(ctx, controlplane.CreateServiceInput{
					ProjectID: st.project.ID,
					Name:      st.templateService.Name,
					Source:    st.templateService.Source,
				})
				if err != nil {
					return err
				}
				st.service = svc
				return nil
			},
			undo: func(ctx context.Context) error {
				return uc.api.DeleteService(ctx, st.service.ID)
			},
		},
		{
			name: StepSetVariables,
			do: func(ctx context.Context) error {
				return uc.api.SetServiceVariables(ctx, controlplane.ServiceRef{
					ProjectID:     st.project.ID,
					EnvironmentID: st.environmentID,
					ServiceID:     st.service.ID,
				}, st.merged)
			},
		},
		{
			name: StepTriggerDeploy,
			do: func(ctx context.Context) error {
				deploymentID, err := uc.api.TriggerRedeploy(ctx, st.service.ID, st.environmentID)
				if err != nil {
					return err
				}
				if deploymentID == "" {
					return errors.New("control plane returned an empty deployment ID")
				}
				st.deploymentID = deploymentID
				return nil
			},
		},
		{
			name: StepPersistInstance,
			do: func(ctx context.Context) error {
				inst, err := instance.NewInstance(instance.NewInstanceParams{
					SubscriptionID: cmd.SubscriptionID,
					OwnerID:        cmd.OwnerID,
					Name:           st.name,
					ProjectID:      st.project.ID,
					ServiceID:      st.service.ID,
					EnvironmentID:  st.environmentID,
					DeploymentID:   st.deploymentID,
					Variables:      utils.RedactVariables(st.merged),
				})
				if err != nil {
					return err
				}
				if err := uc.instanceRepo.Create(ctx, inst); err != nil {
					return fmt.Errorf("failed to persist instance: %w", err)
				}
				st.instance = inst
				return nil
			},
		},
	}
}

// mergeVariables layers the sets left to right; later sets win.
func mergeVariables(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}
	return merged
}

func provisioningLockKey(subscriptionID uint) string {
	return fmt.Sprintf("provision:subscription:%d", subscriptionID)
}
