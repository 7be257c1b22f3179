package instance

import "errors"

var (
	ErrInstanceNotFound       = errors.New("instance not found")
	ErrInstanceDeleted        = errors.New("instance is deleted")
	ErrInstanceLimitReached   = errors.New("instance limit reached for plan")
	ErrConcurrentModification = errors.New("instance was modified concurrently")
	ErrProvisioningInProgress = errors.New("provisioning already in progress for subscription")
)
