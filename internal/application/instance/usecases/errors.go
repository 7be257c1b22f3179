package usecases

import (
	"errors"
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/cache"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/vault"
)

// ProvisioningError reports the saga step that failed. Completed steps have
// already been compensated when it is returned.
type ProvisioningError struct {
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at step %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// IsProvisioningFailure reports whether err means the subscription could not
// be provisioned: a failed saga step, an invalid channel configuration or an
// undecryptable credential. Lock contention, a lost lock lease and the
// instance limit are not failures of the subscription.
func IsProvisioningFailure(err error) bool {
	if errors.Is(err, cache.ErrLeaseLost) {
		return false
	}
	var provErr *ProvisioningError
	if errors.As(err, &provErr) {
		return true
	}
	var cfgErr *services.ConfigurationError
	if errors.As(err, &cfgErr) {
		return true
	}
	var cryptoErr *vault.CryptoError
	return errors.As(err, &cryptoErr)
}
