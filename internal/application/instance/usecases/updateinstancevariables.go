package usecases

import (
	"context"
	"fmt"
	"maps"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	apperrors "github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

type UpdateInstanceVariablesCommand struct {
	SID       string
	Variables map[string]string
	Redeploy  bool
}

type UpdateInstanceVariablesUseCase struct {
	instanceRepo instance.InstanceRepository
	api          controlplane.API
	tracker      InstanceTracker
	logger       logger.Interface
}

func NewUpdateInstanceVariablesUseCase(
	instanceRepo instance.InstanceRepository,
	api controlplane.API,
	tracker InstanceTracker,
	logger logger.Interface,
) *UpdateInstanceVariablesUseCase {
	return &UpdateInstanceVariablesUseCase{
		instanceRepo: instanceRepo,
		api:          api,
		tracker:      tracker,
		logger:       logger,
	}
}

// Execute upserts variables on the remote service and merges their redacted
// values into the stored snapshot.
func (uc *UpdateInstanceVariablesUseCase) Execute(ctx context.Context, cmd UpdateInstanceVariablesCommand) (*dto.InstanceDTO, error) {
	if len(cmd.Variables) == 0 {
		return nil, apperrors.NewValidationError("at least one variable is required")
	}
	for k := range cmd.Variables {
		if k == "" {
			return nil, apperrors.NewValidationError("variable names cannot be empty")
		}
	}

	inst, err := loadInstance(ctx, uc.instanceRepo, cmd.SID)
	if err != nil {
		return nil, err
	}
	if inst.Status() == vo.StatusDeleted {
		return nil, instance.ErrInstanceDeleted
	}

	ref := controlplane.ServiceRef{
		ProjectID:     inst.ProjectID(),
		EnvironmentID: inst.EnvironmentID(),
		ServiceID:     inst.ServiceID(),
	}
	if err := uc.api.SetServiceVariables(ctx, ref, cmd.Variables); err != nil {
		uc.logger.Errorw("failed to push instance variables", "instance_id", cmd.SID, "error", err)
		return nil, err
	}

	var deploymentID string
	if cmd.Redeploy {
		deploymentID, err = triggerRedeploy(ctx, uc.api, uc.tracker, inst)
		if err != nil {
			uc.logger.Errorw("variables updated but redeploy failed", "instance_id", cmd.SID, "error", err)
			return nil, err
		}
	}

	redacted := utils.RedactVariables(cmd.Variables)
	saved, err := persistInstance(ctx, uc.instanceRepo, inst, func(i *instance.Instance) error {
		snapshot := i.Variables()
		if snapshot == nil {
			snapshot = make(map[string]string, len(redacted))
		}
		maps.Copy(snapshot, redacted)
		if err := i.ReplaceVariables(snapshot); err != nil {
			return err
		}
		if deploymentID != "" {
			return i.RestartDeployment(deploymentID)
		}
		return nil
	})
	if cmd.Redeploy && uc.tracker != nil {
		uc.tracker.Track(inst.ID())
	}
	if err != nil {
		uc.logger.Errorw("failed to update instance variables", "instance_id", cmd.SID, "error", err)
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}

	uc.logger.Infow("instance variables updated",
		"instance_id", cmd.SID,
		"keys", utils.SortedKeys(cmd.Variables),
		"redeploy", cmd.Redeploy)

	return dto.ToInstanceDTO(saved), nil
}
