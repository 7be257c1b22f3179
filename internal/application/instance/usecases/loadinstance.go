package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	apperrors "github.com/hatchery-inc/hatchery/internal/shared/errors"
)

// maxPersistAttempts bounds reload-and-reapply rounds on version conflicts.
const maxPersistAttempts = 3

func loadInstance(ctx context.Context, repo instance.InstanceRepository, sid string) (*instance.Instance, error) {
	if sid == "" {
		return nil, apperrors.NewValidationError("instance ID is required")
	}
	inst, err := repo.GetBySID(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	if inst == nil {
		return nil, apperrors.NewNotFoundError("instance not found", sid)
	}
	return inst, nil
}

// persistInstance applies mutate to inst and saves it. Monitor checks write
// the same record, so on ErrConcurrentModification the record is reloaded
// and mutate is applied again to the fresh copy. The saved copy is returned.
func persistInstance(
	ctx context.Context,
	repo instance.InstanceRepository,
	inst *instance.Instance,
	mutate func(*instance.Instance) error,
) (*instance.Instance, error) {
	for attempt := 1; ; attempt++ {
		if err := mutate(inst); err != nil {
			return nil, err
		}

		err := repo.Update(ctx, inst)
		if err == nil {
			return inst, nil
		}
		if !errors.Is(err, instance.ErrConcurrentModification) || attempt == maxPersistAttempts {
			return nil, err
		}

		fresh, err := repo.GetByID(ctx, inst.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to reload instance: %w", err)
		}
		if fresh == nil {
			return nil, apperrors.NewNotFoundError("instance not found", inst.SID())
		}
		inst = fresh
	}
}
