package models

import (
	"time"

	"github.com/hatchery-inc/hatchery/internal/shared/constants"
)

type PaymentOrderModel struct {
	ID             uint   `gorm:"primarykey"`
	OrderNo        string `gorm:"uniqueIndex;not null;size:64"`
	SubscriptionID uint   `gorm:"not null;index"`
	OwnerID        uint   `gorm:"not null"`
	Status         string `gorm:"not null;size:20"`
	PaidAt         *time.Time
	ProvisionedAt  *time.Time
	Version        int `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PaymentOrderModel) TableName() string {
	return constants.TablePaymentOrders
}
