package usecases

import (
	"context"
	"fmt"

	instanceUsecases "github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	"github.com/hatchery-inc/hatchery/internal/domain/payment"
	"github.com/hatchery-inc/hatchery/internal/domain/subscription"
	apperrors "github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// SubscriptionActivator is satisfied by the subscription activation use case.
type SubscriptionActivator interface {
	Activate(ctx context.Context, subscriptionID uint) error
}

// InstanceProvisioner is satisfied by the instance provisioning use case.
type InstanceProvisioner interface {
	Execute(ctx context.Context, cmd instanceUsecases.ProvisionCommand) (*instanceUsecases.ProvisionResult, error)
}

// TransactionManager runs fn in one database transaction.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TemplateSettings names the template every paid subscription is cloned from.
type TemplateSettings struct {
	ProjectID string
	ServiceID string
}

type HandlePaymentSuccessUseCase struct {
	orderRepo        payment.PaymentOrderRepository
	subscriptionRepo subscription.SubscriptionRepository
	credentialRepo   channel.ChannelCredentialRepository
	activator        SubscriptionActivator
	provisioner      InstanceProvisioner
	txManager        TransactionManager
	template         TemplateSettings
	logger           logger.Interface
}

func NewHandlePaymentSuccessUseCase(
	orderRepo payment.PaymentOrderRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	credentialRepo channel.ChannelCredentialRepository,
	activator SubscriptionActivator,
	provisioner InstanceProvisioner,
	txManager TransactionManager,
	template TemplateSettings,
	logger logger.Interface,
) *HandlePaymentSuccessUseCase {
	return &HandlePaymentSuccessUseCase{
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		credentialRepo:   credentialRepo,
		activator:        activator,
		provisioner:      provisioner,
		txManager:        txManager,
		template:         template,
		logger:           logger,
	}
}

// Execute is the payment-confirmed entry point. Replaying an order that has
// already been provisioned returns nil without side effects.
func (uc *HandlePaymentSuccessUseCase) Execute(ctx context.Context, orderNo string) (*instanceUsecases.ProvisionResult, error) {
	if orderNo == "" {
		return nil, apperrors.NewValidationError("order number is required")
	}

	order, err := uc.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		uc.logger.Errorw("failed to get payment order", "order_no", orderNo, "error", err)
		return nil, fmt.Errorf("failed to get payment order: %w", err)
	}
	if order == nil {
		return nil, apperrors.NewNotFoundError(payment.ErrOrderNotFound.Error(), orderNo)
	}
	if order.IsProvisioned() {
		uc.logger.Infow("payment already processed", "order_no", orderNo)
		return nil, nil
	}

	// The order is only recorded as paid if the subscription activates with it.
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := order.MarkPaid(); err != nil {
			uc.logger.Warnw("payment order cannot be marked paid", "order_no", orderNo, "status", order.Status(), "error", err)
			return apperrors.NewConflictError("payment order cannot be processed", err.Error())
		}
		if err := uc.orderRepo.Update(txCtx, order); err != nil {
			uc.logger.Errorw("failed to update payment order", "order_no", orderNo, "error", err)
			return fmt.Errorf("failed to update payment order: %w", err)
		}
		if err := uc.activator.Activate(txCtx, order.SubscriptionID()); err != nil {
			uc.logger.Errorw("failed to activate subscription after payment",
				"order_no", orderNo,
				"subscription_id", order.SubscriptionID(),
				"error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, order.SubscriptionID())
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError(subscription.ErrSubscriptionNotFound.Error(), fmt.Sprintf("id=%d", order.SubscriptionID()))
	}

	credentials, err := uc.credentialRepo.ListActiveBySubscription(ctx, sub.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list channel credentials: %w", err)
	}

	result, provisionErr := uc.provisioner.Execute(ctx, instanceUsecases.ProvisionCommand{
		TemplateProjectID:  uc.template.ProjectID,
		TemplateServiceID:  uc.template.ServiceID,
		OwnerID:            sub.OwnerID(),
		SubscriptionID:     sub.ID(),
		PlanTier:           sub.PlanTier(),
		ChannelCredentials: credentials,
	})
	if provisionErr != nil {
		if instanceUsecases.IsProvisioningFailure(provisionErr) {
			uc.markSubscriptionFailed(ctx, sub, provisionErr)
		} else {
			uc.logger.Warnw("provisioning not attempted",
				"order_no", orderNo,
				"subscription_id", sub.ID(),
				"error", provisionErr)
		}
		return result, provisionErr
	}

	if err := order.MarkProvisioned(); err != nil {
		return result, err
	}
	if err := uc.orderRepo.Update(ctx, order); err != nil {
		uc.logger.Errorw("instance provisioned but order update failed",
			"order_no", orderNo,
			"instance_id", result.InstanceSID,
			"error", err)
		return result, fmt.Errorf("failed to update payment order: %w", err)
	}

	uc.logger.Infow("payment fulfilled",
		"order_no", orderNo,
		"subscription_id", sub.ID(),
		"instance_id", result.InstanceSID)

	return result, nil
}

func (uc *HandlePaymentSuccessUseCase) markSubscriptionFailed(ctx context.Context, sub *subscription.Subscription, cause error) {
	if err := sub.MarkFailed(cause.Error()); err != nil {
		uc.logger.Errorw("failed to mark subscription failed", "subscription_id", sub.ID(), "error", err)
		return
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to persist subscription failure", "subscription_id", sub.ID(), "error", err)
	}
}
