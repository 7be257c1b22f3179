package mappers

import (
	"github.com/hatchery-inc/hatchery/internal/domain/payment"
	vo "github.com/hatchery-inc/hatchery/internal/domain/payment/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
)

func PaymentOrderToModel(o *payment.PaymentOrder) *models.PaymentOrderModel {
	return &models.PaymentOrderModel{
		ID:             o.ID(),
		OrderNo:        o.OrderNo(),
		SubscriptionID: o.SubscriptionID(),
		OwnerID:        o.OwnerID(),
		Status:         o.Status().String(),
		PaidAt:         o.PaidAt(),
		ProvisionedAt:  o.ProvisionedAt(),
		Version:        o.Version(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}
}

func PaymentOrderToDomain(m *models.PaymentOrderModel) (*payment.PaymentOrder, error) {
	return payment.ReconstructPaymentOrder(payment.PaymentOrderReconstructParams{
		ID:             m.ID,
		OrderNo:        m.OrderNo,
		SubscriptionID: m.SubscriptionID,
		OwnerID:        m.OwnerID,
		Status:         vo.OrderStatus(m.Status),
		PaidAt:         m.PaidAt,
		ProvisionedAt:  m.ProvisionedAt,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	})
}
