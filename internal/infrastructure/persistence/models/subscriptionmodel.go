package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hatchery-inc/hatchery/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID            uint      `gorm:"primarykey"`
	SID           string    `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	OwnerID       uint      `gorm:"not null;index:idx_owner_status,priority:1"`
	PlanTier      string    `gorm:"not null;size:20"`
	Status        string    `gorm:"not null;size:20;index:idx_owner_status,priority:2"`
	StartDate     time.Time `gorm:"not null"`
	RenewalDate   time.Time `gorm:"not null"`
	AutoRenew     bool      `gorm:"default:false"`
	FailureReason string    `gorm:"size:500"`
	Version       int       `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
