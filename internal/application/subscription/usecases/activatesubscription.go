package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/domain/subscription"
	apperrors "github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

type ActivateSubscriptionCommand struct {
	SubscriptionID uint
}

type ActivateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewActivateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ActivateSubscriptionUseCase {
	return &ActivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute activates the subscription. It is idempotent, and fails with a
// conflict when the owner already has a different active subscription.
func (uc *ActivateSubscriptionUseCase) Execute(ctx context.Context, cmd ActivateSubscriptionCommand) error {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return apperrors.NewNotFoundError("subscription not found", fmt.Sprintf("id=%d", cmd.SubscriptionID))
	}
	if sub.IsActive() {
		return nil
	}

	active, err := uc.subscriptionRepo.GetActiveByOwnerID(ctx, sub.OwnerID())
	if err != nil {
		uc.logger.Errorw("failed to get active subscriptions", "error", err, "owner_id", sub.OwnerID())
		return fmt.Errorf("failed to get active subscriptions: %w", err)
	}
	for _, other := range active {
		if other.ID() != sub.ID() {
			uc.logger.Warnw("owner already has an active subscription",
				"subscription_id", sub.ID(),
				"active_subscription_id", other.ID(),
				"owner_id", sub.OwnerID())
			return apperrors.NewConflictError(subscription.ErrAlreadyActive.Error(), other.SID())
		}
	}

	if err := sub.Activate(); err != nil {
		uc.logger.Errorw("failed to activate subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		if errors.Is(err, subscription.ErrInvalidStatusTransition) {
			return apperrors.NewConflictError("subscription cannot be activated", err.Error())
		}
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to update subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	uc.logger.Infow("subscription activated successfully",
		"subscription_id", cmd.SubscriptionID,
		"status", sub.Status(),
	)

	return nil
}

// Activate lets the deployment monitor activate a subscription by ID.
func (uc *ActivateSubscriptionUseCase) Activate(ctx context.Context, subscriptionID uint) error {
	return uc.Execute(ctx, ActivateSubscriptionCommand{SubscriptionID: subscriptionID})
}
