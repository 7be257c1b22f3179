package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/mappers"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
	"github.com/hatchery-inc/hatchery/internal/shared/db"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/mapper"
)

type InstanceRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.InstanceMapper
	logger logger.Interface
}

func NewInstanceRepository(db *gorm.DB, logger logger.Interface) instance.InstanceRepository {
	return &InstanceRepositoryImpl{
		db:     db,
		mapper: mappers.NewInstanceMapper(),
		logger: logger,
	}
}

func (r *InstanceRepositoryImpl) Create(ctx context.Context, entity *instance.Instance) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		r.logger.Errorw("failed to map instance entity to model", "error", err)
		return fmt.Errorf("failed to map instance entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create instance in database", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create instance: %w", err)
	}

	if err := entity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set instance ID: %w", err)
	}

	r.logger.Infow("instance created successfully", "id", model.ID, "sid", model.SID, "subscription_id", model.SubscriptionID)
	return nil
}

// Update writes the entity only if the stored version still matches the one
// it was loaded with, then advances the entity's version.
func (r *InstanceRepositoryImpl) Update(ctx context.Context, entity *instance.Instance) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		r.logger.Errorw("failed to map instance entity to model", "id", entity.ID(), "error", err)
		return fmt.Errorf("failed to map instance entity: %w", err)
	}

	nextVersion := model.Version + 1
	result := db.GetTxFromContext(ctx, r.db).Model(&models.InstanceModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"deployment_id":           model.DeploymentID,
			"status":                  model.Status,
			"public_url":              model.PublicURL,
			"error_message":           model.ErrorMessage,
			"needs_attention":         model.NeedsAttention,
			"variables":               model.Variables,
			"logs":                    model.Logs,
			"deployment_started_at":   model.DeploymentStartedAt,
			"deployment_updated_at":   model.DeploymentUpdatedAt,
			"deployment_completed_at": model.DeploymentCompletedAt,
			"version":                 nextVersion,
			"updated_at":              model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update instance", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update instance: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("instance %d at version %d: %w", model.ID, model.Version, instance.ErrConcurrentModification)
	}

	entity.SetVersion(nextVersion)
	return nil
}

func (r *InstanceRepositoryImpl) GetByID(ctx context.Context, id uint) (*instance.Instance, error) {
	var model models.InstanceModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get instance by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InstanceRepositoryImpl) GetBySID(ctx context.Context, sid string) (*instance.Instance, error) {
	var model models.InstanceModel

	if err := db.GetTxFromContext(ctx, r.db).Where("sid = ?", sid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get instance by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InstanceRepositoryImpl) CountActiveBySubscription(ctx context.Context, subscriptionID uint) (int64, error) {
	var count int64

	if err := db.GetTxFromContext(ctx, r.db).Model(&models.InstanceModel{}).
		Where("subscription_id = ?", subscriptionID).
		Scopes(db.StatusNot(vo.StatusDeleted.String())).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count instances", "subscription_id", subscriptionID, "error", err)
		return 0, fmt.Errorf("failed to count instances: %w", err)
	}

	return count, nil
}

func (r *InstanceRepositoryImpl) ListByStatuses(ctx context.Context, statuses ...vo.LifecycleStatus) ([]*instance.Instance, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	var modelList []*models.InstanceModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.StatusIn(mapper.MapSlice(statuses, vo.LifecycleStatus.String)...)).
		Order("id ASC").
		Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list instances by status", "statuses", statuses, "error", err)
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *InstanceRepositoryImpl) CountByStatus(ctx context.Context) (map[vo.LifecycleStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	if err := db.GetTxFromContext(ctx, r.db).Model(&models.InstanceModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		r.logger.Errorw("failed to count instances by status", "error", err)
		return nil, fmt.Errorf("failed to count instances by status: %w", err)
	}

	counts := make(map[vo.LifecycleStatus]int64, len(rows))
	for _, row := range rows {
		counts[vo.LifecycleStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *InstanceRepositoryImpl) CountNeedingAttention(ctx context.Context) (int64, error) {
	var count int64

	if err := db.GetTxFromContext(ctx, r.db).Model(&models.InstanceModel{}).
		Where("needs_attention = ?", true).
		Scopes(db.StatusNot(vo.StatusDeleted.String())).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count instances needing attention: %w", err)
	}

	return count, nil
}
