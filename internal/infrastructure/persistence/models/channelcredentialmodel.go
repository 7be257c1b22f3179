package models

import (
	"time"

	"github.com/hatchery-inc/hatchery/internal/shared/constants"
)

// ChannelCredentialModel stores only the encrypted channel configuration.
type ChannelCredentialModel struct {
	ID             uint   `gorm:"primarykey"`
	SID            string `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: chc_xxx"`
	SubscriptionID uint   `gorm:"not null;index:idx_subscription_active,priority:1"`
	ChannelType    string `gorm:"not null;size:20"`
	IV             string `gorm:"not null;size:64"`
	Ciphertext     string `gorm:"not null;type:text"`
	AlgorithmID    string `gorm:"not null;size:32"`
	IsActive       bool   `gorm:"not null;default:true;index:idx_subscription_active,priority:2"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ChannelCredentialModel) TableName() string {
	return constants.TableChannelCredentials
}
