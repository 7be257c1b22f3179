package usecases

import (
	"context"
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

type StopInstanceUseCase struct {
	instanceRepo instance.InstanceRepository
	tracker      InstanceTracker
	logger       logger.Interface
}

func NewStopInstanceUseCase(
	instanceRepo instance.InstanceRepository,
	tracker InstanceTracker,
	logger logger.Interface,
) *StopInstanceUseCase {
	return &StopInstanceUseCase{
		instanceRepo: instanceRepo,
		tracker:      tracker,
		logger:       logger,
	}
}

func (uc *StopInstanceUseCase) Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}

	if uc.tracker != nil {
		uc.tracker.StopMonitoring(inst.ID())
	}
	saved, err := persistInstance(ctx, uc.instanceRepo, inst, func(i *instance.Instance) error {
		return i.MarkStopped()
	})
	if err != nil {
		uc.logger.Errorw("failed to stop instance", "instance_id", sid, "error", err)
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}

	uc.logger.Infow("instance stopped", "instance_id", sid)
	return dto.ToInstanceDTO(saved), nil
}
