package usecases

import (
	"context"
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

type DeleteInstanceResult struct {
	ServiceDeleted bool
	ProjectDeleted bool
}

type DeleteInstanceUseCase struct {
	instanceRepo instance.InstanceRepository
	api          controlplane.API
	tracker      InstanceTracker
	logger       logger.Interface
}

func NewDeleteInstanceUseCase(
	instanceRepo instance.InstanceRepository,
	api controlplane.API,
	tracker InstanceTracker,
	logger logger.Interface,
) *DeleteInstanceUseCase {
	return &DeleteInstanceUseCase{
		instanceRepo: instanceRepo,
		api:          api,
		tracker:      tracker,
		logger:       logger,
	}
}

// Execute soft-deletes the instance. Remote cleanup is best effort: its
// failures are logged and recorded in the instance log, and the record is
// marked deleted regardless. Deleting a deleted instance is a no-op.
func (uc *DeleteInstanceUseCase) Execute(ctx context.Context, sid string) (*DeleteInstanceResult, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}
	if inst.Status() == vo.StatusDeleted {
		return &DeleteInstanceResult{}, nil
	}

	if uc.tracker != nil {
		uc.tracker.StopMonitoring(inst.ID())
	}

	result := &DeleteInstanceResult{}
	var warnings []string

	err = uc.api.DeleteService(ctx, inst.ServiceID())
	switch {
	case err == nil:
		result.ServiceDeleted = true
	case controlplane.IsNotFound(err):
		uc.logger.Infow("remote service already gone", "instance_id", sid, "service_id", inst.ServiceID())
		result.ServiceDeleted = true
	default:
		uc.logger.Warnw("failed to delete remote service", "instance_id", sid, "service_id", inst.ServiceID(), "error", err)
		warnings = append(warnings, fmt.Sprintf("remote service %s was not deleted: %v", inst.ServiceID(), err))
	}

	err = uc.api.DeleteProject(ctx, inst.ProjectID())
	switch {
	case err == nil:
		result.ProjectDeleted = true
	case controlplane.IsNotFound(err):
		uc.logger.Infow("remote project already gone", "instance_id", sid, "project_id", inst.ProjectID())
		result.ProjectDeleted = true
	default:
		uc.logger.Warnw("failed to delete remote project", "instance_id", sid, "project_id", inst.ProjectID(), "error", err)
		warnings = append(warnings, fmt.Sprintf("remote project %s was not deleted: %v", inst.ProjectID(), err))
	}

	_, err = persistInstance(ctx, uc.instanceRepo, inst, func(i *instance.Instance) error {
		if i.Status() == vo.StatusDeleted {
			return nil
		}
		for _, w := range warnings {
			i.AppendLog(vo.LogWarn, w)
		}
		i.MarkDeleted()
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to mark instance deleted", "instance_id", sid, "error", err)
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}

	uc.logger.Infow("instance deleted",
		"instance_id", sid,
		"service_deleted", result.ServiceDeleted,
		"project_deleted", result.ProjectDeleted)

	return result, nil
}
