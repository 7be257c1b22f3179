package usecases

import (
	"context"
	"time"

	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/cache"
)

// EnvironmentComposer builds the variable set a new instance starts with.
type EnvironmentComposer interface {
	Compose(ctx context.Context, in services.ComposeInput) (map[string]string, error)
}

// ProvisioningLock serialises provisioning per subscription. The lease is
// extended before every saga step.
type ProvisioningLock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (lease cache.Lease, acquired bool, err error)
}

// InstanceTracker follows a deployment until it settles.
type InstanceTracker interface {
	Track(instanceID uint)
	StopMonitoring(instanceID uint) bool
}
