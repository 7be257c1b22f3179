package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hatchery-inc/hatchery/internal/shared/constants"
)

// InstanceModel represents the database persistence model for provisioned instances.
// Variables hold the redacted snapshot; Logs hold the newest-first history.
type InstanceModel struct {
	ID                    uint   `gorm:"primarykey"`
	SID                   string `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: inst_xxx"`
	SubscriptionID        uint   `gorm:"not null;index:idx_instance_subscription"`
	OwnerID               uint   `gorm:"not null;index:idx_instance_owner"`
	Name                  string `gorm:"not null;size:100"`
	ProjectID             string `gorm:"not null;size:64"`
	ServiceID             string `gorm:"not null;size:64"`
	EnvironmentID         string `gorm:"not null;size:64"`
	DeploymentID          string `gorm:"size:64"`
	Status                string `gorm:"not null;size:20;index:idx_instance_status"`
	PublicURL             string `gorm:"size:255"`
	ErrorMessage          string `gorm:"size:1000"`
	NeedsAttention        bool   `gorm:"not null;default:false"`
	Variables             datatypes.JSON
	Logs                  datatypes.JSON
	DeploymentStartedAt   time.Time `gorm:"not null"`
	DeploymentUpdatedAt   *time.Time
	DeploymentCompletedAt *time.Time
	Version               int `gorm:"not null;default:1"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (InstanceModel) TableName() string {
	return constants.TableInstances
}

func (m *InstanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
