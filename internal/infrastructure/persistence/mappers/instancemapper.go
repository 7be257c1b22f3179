package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
	"github.com/hatchery-inc/hatchery/internal/shared/mapper"
)

type InstanceMapper interface {
	ToEntity(model *models.InstanceModel) (*instance.Instance, error)
	ToModel(entity *instance.Instance) (*models.InstanceModel, error)
	ToEntities(models []*models.InstanceModel) ([]*instance.Instance, error)
}

type InstanceMapperImpl struct{}

func NewInstanceMapper() InstanceMapper {
	return &InstanceMapperImpl{}
}

func (m *InstanceMapperImpl) ToEntity(model *models.InstanceModel) (*instance.Instance, error) {
	if model == nil {
		return nil, nil
	}

	variables := make(map[string]string)
	if len(model.Variables) > 0 {
		if err := json.Unmarshal(model.Variables, &variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
		}
	}

	var logs []vo.LogEntry
	if len(model.Logs) > 0 {
		if err := json.Unmarshal(model.Logs, &logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}

	entity, err := instance.ReconstructInstance(instance.InstanceReconstructParams{
		ID:                    model.ID,
		SID:                   model.SID,
		SubscriptionID:        model.SubscriptionID,
		OwnerID:               model.OwnerID,
		Name:                  model.Name,
		ProjectID:             model.ProjectID,
		ServiceID:             model.ServiceID,
		EnvironmentID:         model.EnvironmentID,
		DeploymentID:          model.DeploymentID,
		Status:                vo.LifecycleStatus(model.Status),
		PublicURL:             model.PublicURL,
		ErrorMessage:          model.ErrorMessage,
		NeedsAttention:        model.NeedsAttention,
		Variables:             variables,
		Logs:                  logs,
		DeploymentStartedAt:   model.DeploymentStartedAt,
		DeploymentUpdatedAt:   model.DeploymentUpdatedAt,
		DeploymentCompletedAt: model.DeploymentCompletedAt,
		Version:               model.Version,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct instance entity: %w", err)
	}

	return entity, nil
}

func (m *InstanceMapperImpl) ToModel(entity *instance.Instance) (*models.InstanceModel, error) {
	if entity == nil {
		return nil, nil
	}

	variablesJSON, err := json.Marshal(entity.Variables())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}

	logsJSON, err := json.Marshal(entity.Logs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal logs: %w", err)
	}

	return &models.InstanceModel{
		ID:                    entity.ID(),
		SID:                   entity.SID(),
		SubscriptionID:        entity.SubscriptionID(),
		OwnerID:               entity.OwnerID(),
		Name:                  entity.Name(),
		ProjectID:             entity.ProjectID(),
		ServiceID:             entity.ServiceID(),
		EnvironmentID:         entity.EnvironmentID(),
		DeploymentID:          entity.DeploymentID(),
		Status:                entity.Status().String(),
		PublicURL:             entity.PublicURL(),
		ErrorMessage:          entity.ErrorMessage(),
		NeedsAttention:        entity.NeedsAttention(),
		Variables:             datatypes.JSON(variablesJSON),
		Logs:                  datatypes.JSON(logsJSON),
		DeploymentStartedAt:   entity.DeploymentStartedAt(),
		DeploymentUpdatedAt:   entity.DeploymentUpdatedAt(),
		DeploymentCompletedAt: entity.DeploymentCompletedAt(),
		Version:               entity.Version(),
		CreatedAt:             entity.CreatedAt(),
		UpdatedAt:             entity.UpdatedAt(),
	}, nil
}

func (m *InstanceMapperImpl) ToEntities(modelList []*models.InstanceModel) ([]*instance.Instance, error) {
	return mapper.MapSliceErr(modelList, m.ToEntity)
}
