package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/mappers"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
	"github.com/hatchery-inc/hatchery/internal/shared/db"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

type ChannelCredentialRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewChannelCredentialRepository(db *gorm.DB, logger logger.Interface) *ChannelCredentialRepository {
	return &ChannelCredentialRepository{db: db, logger: logger}
}

func (r *ChannelCredentialRepository) Create(ctx context.Context, credential *channel.ChannelCredential) error {
	model := mappers.ChannelCredentialToModel(credential)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create channel credential", "subscription_id", model.SubscriptionID, "channel", model.ChannelType, "error", err)
		return fmt.Errorf("failed to create channel credential: %w", err)
	}

	return credential.SetID(model.ID)
}

func (r *ChannelCredentialRepository) Update(ctx context.Context, credential *channel.ChannelCredential) error {
	model := mappers.ChannelCredentialToModel(credential)

	result := db.GetTxFromContext(ctx, r.db).Model(&models.ChannelCredentialModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"iv":           model.IV,
			"ciphertext":   model.Ciphertext,
			"algorithm_id": model.AlgorithmID,
			"is_active":    model.IsActive,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update channel credential", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update channel credential: %w", result.Error)
	}
	return nil
}

func (r *ChannelCredentialRepository) ListActiveBySubscription(ctx context.Context, subscriptionID uint) ([]*channel.ChannelCredential, error) {
	var modelList []*models.ChannelCredentialModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ? AND is_active = ?", subscriptionID, true).
		Order("channel_type ASC, id ASC").
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list channel credentials", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list channel credentials: %w", err)
	}

	credentials := make([]*channel.ChannelCredential, 0, len(modelList))
	for _, model := range modelList {
		c, err := mappers.ChannelCredentialToDomain(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map channel credential %d: %w", model.ID, err)
		}
		credentials = append(credentials, c)
	}
	return credentials, nil
}
