package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	"github.com/hatchery-inc/hatchery/internal/domain/payment"
	"github.com/hatchery-inc/hatchery/internal/domain/subscription"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/vault"
	"github.com/hatchery-inc/hatchery/internal/shared/constants"
	"github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

var conflictErrors = []error{
	instance.ErrInstanceDeleted,
	instance.ErrConcurrentModification,
	instance.ErrProvisioningInProgress,
	instance.ErrInstanceLimitReached,
	services.ErrCheckInProgress,
	subscription.ErrInvalidStatusTransition,
	subscription.ErrAlreadyActive,
	payment.ErrOrderNotPayable,
	payment.ErrOrderNotPaid,
}

var notFoundErrors = []error{
	instance.ErrInstanceNotFound,
	subscription.ErrSubscriptionNotFound,
	payment.ErrOrderNotFound,
}

// toAppError maps domain, control-plane and vault failures onto the HTTP
// error taxonomy. AppErrors pass through unchanged.
func toAppError(err error) *errors.AppError {
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}

	var details []string
	var provErr *usecases.ProvisioningError
	if stderrors.As(err, &provErr) {
		details = append(details, "step: "+provErr.Step)
	}

	for _, target := range notFoundErrors {
		if stderrors.Is(err, target) {
			return errors.NewNotFoundError(err.Error(), details...)
		}
	}
	for _, target := range conflictErrors {
		if stderrors.Is(err, target) {
			return errors.NewConflictError(err.Error(), details...)
		}
	}

	var cfgErr *services.ConfigurationError
	var cryptoErr *vault.CryptoError
	var cpErr *controlplane.Error
	switch {
	case stderrors.As(err, &cfgErr):
		return errors.NewConfigurationError(cfgErr.Error(), details...)
	case stderrors.As(err, &cryptoErr):
		return errors.NewConfigurationError("channel credential could not be decrypted", details...)
	case stderrors.As(err, &cpErr):
		return errors.NewUpstreamError(cpErr.Error(), details...)
	}

	return errors.NewInternalError(constants.ErrMsgInternalServerError, details...)
}

// respondError writes the mapped error and logs server-side failures.
func respondError(c *gin.Context, log logger.Interface, err error) {
	appErr := toAppError(err)
	if appErr.Code >= 500 {
		log.Errorw("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err)
	}
	_ = c.Error(err)
	utils.ErrorResponseWithError(c, appErr)
}
