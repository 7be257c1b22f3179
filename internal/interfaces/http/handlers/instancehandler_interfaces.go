package handlers

import (
	"context"

	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
)

// Use case interfaces for InstanceHandler

type getInstanceUseCase interface {
	Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error)
	Progress(ctx context.Context, sid string) (*dto.ProgressDTO, error)
	Health(ctx context.Context, sid string) (*dto.HealthDTO, error)
	Logs(ctx context.Context, sid string, limit int) ([]*dto.LogEntryDTO, error)
}

type redeployInstanceUseCase interface {
	Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error)
}

type deleteInstanceUseCase interface {
	Execute(ctx context.Context, sid string) (*usecases.DeleteInstanceResult, error)
}

type updateInstanceVariablesUseCase interface {
	Execute(ctx context.Context, cmd usecases.UpdateInstanceVariablesCommand) (*dto.InstanceDTO, error)
}

type stopInstanceUseCase interface {
	Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error)
}
