package handlers

import "github.com/hatchery-inc/hatchery/internal/application/instance/usecases"

type ProvisionResponse struct {
	InstanceID     string   `json:"instance_id"`
	InstanceName   string   `json:"instance_name"`
	ProjectID      string   `json:"project_id"`
	EnvironmentID  string   `json:"environment_id"`
	ServiceID      string   `json:"service_id"`
	DeploymentID   string   `json:"deployment_id"`
	CompletedSteps []string `json:"completed_steps"`
}

func toProvisionResponse(r *usecases.ProvisionResult) *ProvisionResponse {
	return &ProvisionResponse{
		InstanceID:     r.InstanceSID,
		InstanceName:   r.InstanceName,
		ProjectID:      r.ProjectID,
		EnvironmentID:  r.EnvironmentID,
		ServiceID:      r.ServiceID,
		DeploymentID:   r.DeploymentID,
		CompletedSteps: r.CompletedSteps,
	}
}
