package mappers

import (
	"fmt"

	"github.com/hatchery-inc/hatchery/internal/domain/subscription"
	vo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
	"github.com/hatchery-inc/hatchery/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) *models.SubscriptionModel
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := subscription.ReconstructSubscription(subscription.SubscriptionReconstructParams{
		ID:            model.ID,
		SID:           model.SID,
		OwnerID:       model.OwnerID,
		PlanTier:      vo.PlanTier(model.PlanTier),
		Status:        vo.SubscriptionStatus(model.Status),
		StartDate:     model.StartDate,
		RenewalDate:   model.RenewalDate,
		AutoRenew:     model.AutoRenew,
		FailureReason: model.FailureReason,
		Version:       model.Version,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) *models.SubscriptionModel {
	if entity == nil {
		return nil
	}

	return &models.SubscriptionModel{
		ID:            entity.ID(),
		SID:           entity.SID(),
		OwnerID:       entity.OwnerID(),
		PlanTier:      entity.PlanTier().String(),
		Status:        entity.Status().String(),
		StartDate:     entity.StartDate(),
		RenewalDate:   entity.RenewalDate(),
		AutoRenew:     entity.AutoRenew(),
		FailureReason: entity.FailureReason(),
		Version:       entity.Version(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSliceErr(modelList, m.ToEntity)
}
