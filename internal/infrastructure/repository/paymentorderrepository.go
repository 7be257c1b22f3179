package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hatchery-inc/hatchery/internal/domain/payment"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/mappers"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
	"github.com/hatchery-inc/hatchery/internal/shared/db"
)

type PaymentOrderRepository struct {
	db *gorm.DB
}

func NewPaymentOrderRepository(db *gorm.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

func (r *PaymentOrderRepository) Create(ctx context.Context, o *payment.PaymentOrder) error {
	model := mappers.PaymentOrderToModel(o)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment order: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	return o.SetID(model.ID)
}

func (r *PaymentOrderRepository) Update(ctx context.Context, o *payment.PaymentOrder) error {
	model := mappers.PaymentOrderToModel(o)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentOrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"paid_at":        model.PaidAt,
			"provisioned_at": model.ProvisionedAt,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update payment order: %w", result.Error)
	}

	return nil
}

func (r *PaymentOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*payment.PaymentOrder, error) {
	var model models.PaymentOrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_no = ?", orderNo).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment order by order_no: %w", err)
	}

	return mappers.PaymentOrderToDomain(&model)
}
