package instance

import (
	"context"

	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
)

// InstanceRepository lookups return (nil, nil) when nothing matches.
// Update fails with ErrConcurrentModification when the stored version moved.
type InstanceRepository interface {
	Create(ctx context.Context, instance *Instance) error
	Update(ctx context.Context, instance *Instance) error
	GetByID(ctx context.Context, id uint) (*Instance, error)
	GetBySID(ctx context.Context, sid string) (*Instance, error)

	// CountActiveBySubscription counts instances that are not deleted.
	CountActiveBySubscription(ctx context.Context, subscriptionID uint) (int64, error)
	ListByStatuses(ctx context.Context, statuses ...vo.LifecycleStatus) ([]*Instance, error)
	CountByStatus(ctx context.Context) (map[vo.LifecycleStatus]int64, error)
	CountNeedingAttention(ctx context.Context) (int64, error)
}
