package usecases

import (
	"context"

	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

const DefaultLogLimit = 100

type GetInstanceUseCase struct {
	instanceRepo instance.InstanceRepository
	logger       logger.Interface
}

func NewGetInstanceUseCase(instanceRepo instance.InstanceRepository, logger logger.Interface) *GetInstanceUseCase {
	return &GetInstanceUseCase{
		instanceRepo: instanceRepo,
		logger:       logger,
	}
}

func (uc *GetInstanceUseCase) Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}
	return dto.ToInstanceDTO(inst), nil
}

func (uc *GetInstanceUseCase) Progress(ctx context.Context, sid string) (*dto.ProgressDTO, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}
	return dto.ToProgressDTO(inst), nil
}

func (uc *GetInstanceUseCase) Health(ctx context.Context, sid string) (*dto.HealthDTO, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}
	return dto.ToHealthDTO(inst), nil
}

// Logs returns the newest entries first. limit is clamped to
// [1, MaxLogEntries] and defaults to DefaultLogLimit.
func (uc *GetInstanceUseCase) Logs(ctx context.Context, sid string, limit int) ([]*dto.LogEntryDTO, error) {
	inst, err := loadInstance(ctx, uc.instanceRepo, sid)
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultLogLimit
	case limit > vo.MaxLogEntries:
		limit = vo.MaxLogEntries
	}
	return dto.ToLogEntryDTOList(inst.RecentLogs(limit)), nil
}
