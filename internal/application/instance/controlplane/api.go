// Package controlplane declares the operations the provisioning pipeline
// needs from the remote deployment platform.
package controlplane

import "context"

// API is implemented by the infrastructure GraphQL client. Every call is
// bounded by a per-call timeout and fails with *Error. Writes are not
// idempotent and are never retried.
type API interface {
	GetProject(ctx context.Context, projectID string) (*Project, error)
	CreateProject(ctx context.Context, name string) (*Project, error)
	GetService(ctx context.Context, serviceID string) (*Service, error)
	GetProjectServices(ctx context.Context, projectID string) ([]Service, error)
	CreateService(ctx context.Context, input CreateServiceInput) (*Service, error)
	CreateEnvironment(ctx context.Context, projectID, name string) (*Environment, error)
	GetServiceVariables(ctx context.Context, ref ServiceRef) (map[string]string, error)
	SetServiceVariables(ctx context.Context, ref ServiceRef, variables map[string]string) error
	TriggerRedeploy(ctx context.Context, serviceID, environmentID string) (string, error)
	GetDeploymentStatus(ctx context.Context, deploymentID string) (*Deployment, error)
	DeleteService(ctx context.Context, serviceID string) error
	DeleteProject(ctx context.Context, projectID string) error
}
