package usecases

import (
	"context"
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

type RedeployInstanceUseCase struct {
	instanceRepo instance.InstanceRepository
	api          controlplane.API
	tracker      InstanceTracker
	logger       logger.Interface
}

func NewRedeployInstanceUseCase(
	instanceRepo instance.InstanceRepository,
	api controlplane.API,
	tracker InstanceTracker,
	logger logger.Interface,
) *RedeployInstanceUseCase {
	return &RedeployInstanceUseCase{
		instanceRepo: instanceRepo,
		api:          api,
		tracker:      tracker,
		logger:       logger,
	}
}

// Execute triggers a new deployment and restarts the instance timeline.
func (uc *RedeployInstanceUseCase) Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}
	if inst.Status() == vo.StatusDeleted {
		return nil, instance.ErrInstanceDeleted
	}

	deploymentID, err := triggerRedeploy(ctx, uc.api, uc.tracker, inst)
	if err != nil {
		uc.logger.Errorw("failed to trigger redeploy", "instance_id", sid, "error", err)
		return nil, err
	}

	saved, err := persistInstance(ctx, uc.instanceRepo, inst, func(i *instance.Instance) error {
		return i.RestartDeployment(deploymentID)
	})
	if uc.tracker != nil {
		// tracking was stopped for the trigger; resume it even when the
		// write failed so the old record is not left to the sweep alone
		uc.tracker.Track(inst.ID())
	}
	if err != nil {
		uc.logger.Errorw("failed to update instance after redeploy",
			"instance_id", sid,
			"deployment_id", deploymentID,
			"error", err)
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}

	uc.logger.Infow("instance redeploy triggered",
		"instance_id", sid,
		"deployment_id", deploymentID)

	return dto.ToInstanceDTO(saved), nil
}

// triggerRedeploy starts a remote deployment for inst and stops its tracker.
// The caller moves the record onto the returned deployment and re-tracks it.
func triggerRedeploy(ctx context.Context, api controlplane.API, tracker InstanceTracker, inst *instance.Instance) (string, error) {
	deploymentID, err := api.TriggerRedeploy(ctx, inst.ServiceID(), inst.EnvironmentID())
	if err != nil {
		return "", err
	}
	if tracker != nil {
		tracker.StopMonitoring(inst.ID())
	}
	return deploymentID, nil
}
