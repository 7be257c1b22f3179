package controlplane

import (
	"context"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
)

const projectFields = `
	id
	name
	environments { edges { node { id name } } }
	services { edges { node { id name } } }
`

type idName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type projectNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Environments struct {
		Edges []struct {
			Node idName `json:"node"`
		} `json:"edges"`
	} `json:"environments"`
	Services struct {
		Edges []struct {
			Node idName `json:"node"`
		} `json:"edges"`
	} `json:"services"`
}

func (p projectNode) toProject() *controlplane.Project {
	project := &controlplane.Project{ID: p.ID, Name: p.Name}
	for _, e := range p.Environments.Edges {
		project.Environments = append(project.Environments, controlplane.Environment{ID: e.Node.ID, Name: e.Node.Name})
	}
	for _, e := range p.Services.Edges {
		project.Services = append(project.Services, controlplane.Service{ID: e.Node.ID, Name: e.Node.Name, ProjectID: p.ID})
	}
	return project
}

type serviceNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	Source    *struct {
		Repo  string `json:"repo"`
		Image string `json:"image"`
	} `json:"source"`
}

func (s serviceNode) toService() *controlplane.Service {
	svc := &controlplane.Service{ID: s.ID, Name: s.Name, ProjectID: s.ProjectID}
	if s.Source != nil {
		svc.Source = controlplane.ServiceSource{Repo: s.Source.Repo, Image: s.Source.Image}
	}
	return svc
}

func (c *GraphQLClient) GetProject(ctx context.Context, projectID string) (*controlplane.Project, error) {
	var out struct {
		Project projectNode `json:"project"`
	}
	query := `query project($id: String!) { project(id: $id) {` + projectFields + `} }`
	if err := c.execute(ctx, "GetProject", query, map[string]any{"id": projectID}, &out); err != nil {
		return nil, err
	}
	return out.Project.toProject(), nil
}

func (c *GraphQLClient) CreateProject(ctx context.Context, name string) (*controlplane.Project, error) {
	var out struct {
		ProjectCreate projectNode `json:"projectCreate"`
	}
	query := `mutation projectCreate($input: ProjectCreateInput!) { projectCreate(input: $input) {` + projectFields + `} }`
	vars := map[string]any{"input": map[string]any{"name": name}}
	if err := c.execute(ctx, "CreateProject", query, vars, &out); err != nil {
		return nil, err
	}
	return out.ProjectCreate.toProject(), nil
}

func (c *GraphQLClient) GetService(ctx context.Context, serviceID string) (*controlplane.Service, error) {
	var out struct {
		Service serviceNode `json:"service"`
	}
	query := `query service($id: String!) { service(id: $id) { id name projectId source { repo image } } }`
	if err := c.execute(ctx, "GetService", query, map[string]any{"id": serviceID}, &out); err != nil {
		return nil, err
	}
	return out.Service.toService(), nil
}

func (c *GraphQLClient) GetProjectServices(ctx context.Context, projectID string) ([]controlplane.Service, error) {
	project, err := c.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return project.Services, nil
}

func (c *GraphQLClient) CreateService(ctx context.Context, input controlplane.CreateServiceInput) (*controlplane.Service, error) {
	var out struct {
		ServiceCreate serviceNode `json:"serviceCreate"`
	}
	source := map[string]any{}
	if input.Source.Repo != "" {
		source["repo"] = input.Source.Repo
	}
	if input.Source.Image != "" {
		source["image"] = input.Source.Image
	}
	query := `mutation serviceCreate($input: ServiceCreateInput!) { serviceCreate(input: $input) { id name projectId } }`
	vars := map[string]any{"input": map[string]any{
		"projectId": input.ProjectID,
		"name":      input.Name,
		"source":    source,
	}}
	if err := c.execute(ctx, "CreateService", query, vars, &out); err != nil {
		return nil, err
	}
	return out.ServiceCreate.toService(), nil
}

func (c *GraphQLClient) CreateEnvironment(ctx context.Context, projectID, name string) (*controlplane.Environment, error) {
	var out struct {
		EnvironmentCreate idName `json:"environmentCreate"`
	}
	query := `mutation environmentCreate($input: EnvironmentCreateInput!) { environmentCreate(input: $input) { id name } }`
	vars := map[string]any{"input": map[string]any{"projectId": projectID, "name": name}}
	if err := c.execute(ctx, "CreateEnvironment", query, vars, &out); err != nil {
		return nil, err
	}
	return &controlplane.Environment{ID: out.EnvironmentCreate.ID, Name: out.EnvironmentCreate.Name}, nil
}

func refVars(ref controlplane.ServiceRef) map[string]any {
	return map[string]any{
		"projectId":     ref.ProjectID,
		"environmentId": ref.EnvironmentID,
		"serviceId":     ref.ServiceID,
	}
}

func (c *GraphQLClient) GetServiceVariables(ctx context.Context, ref controlplane.ServiceRef) (map[string]string, error) {
	var out struct {
		Variables map[string]string `json:"variables"`
	}
	query := `query variables($projectId: String!, $environmentId: String!, $serviceId: String) {
		variables(projectId: $projectId, environmentId: $environmentId, serviceId: $serviceId)
	}`
	if err := c.execute(ctx, "GetServiceVariables", query, refVars(ref), &out); err != nil {
		return nil, err
	}
	if out.Variables == nil {
		return map[string]string{}, nil
	}
	return out.Variables, nil
}

func (c *GraphQLClient) SetServiceVariables(ctx context.Context, ref controlplane.ServiceRef, variables map[string]string) error {
	input := refVars(ref)
	input["variables"] = variables
	query := `mutation variableCollectionUpsert($input: VariableCollectionUpsertInput!) {
		variableCollectionUpsert(input: $input)
	}`
	return c.execute(ctx, "SetServiceVariables", query, map[string]any{"input": input}, nil)
}

func (c *GraphQLClient) TriggerRedeploy(ctx context.Context, serviceID, environmentID string) (string, error) {
	var out struct {
		DeploymentID string `json:"serviceInstanceDeployV2"`
	}
	query := `mutation serviceInstanceDeployV2($serviceId: String!, $environmentId: String!) {
		serviceInstanceDeployV2(serviceId: $serviceId, environmentId: $environmentId)
	}`
	vars := map[string]any{"serviceId": serviceID, "environmentId": environmentID}
	if err := c.execute(ctx, "TriggerRedeploy", query, vars, &out); err != nil {
		return "", err
	}
	if out.DeploymentID == "" {
		return "", &controlplane.Error{Operation: "TriggerRedeploy", Message: "no deployment id returned", HTTPStatus: 200}
	}
	return out.DeploymentID, nil
}

func (c *GraphQLClient) GetDeploymentStatus(ctx context.Context, deploymentID string) (*controlplane.Deployment, error) {
	var out struct {
		Deployment struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			StaticURL string `json:"staticUrl"`
		} `json:"deployment"`
	}
	query := `query deployment($id: String!) { deployment(id: $id) { id status staticUrl } }`
	if err := c.execute(ctx, "GetDeploymentStatus", query, map[string]any{"id": deploymentID}, &out); err != nil {
		return nil, err
	}
	return &controlplane.Deployment{
		ID:        out.Deployment.ID,
		Status:    out.Deployment.Status,
		StaticURL: out.Deployment.StaticURL,
	}, nil
}

func (c *GraphQLClient) DeleteService(ctx context.Context, serviceID string) error {
	query := `mutation serviceDelete($id: String!) { serviceDelete(id: $id) }`
	return c.execute(ctx, "DeleteService", query, map[string]any{"id": serviceID}, nil)
}

func (c *GraphQLClient) DeleteProject(ctx context.Context, projectID string) error {
	query := `mutation projectDelete($id: String!) { projectDelete(id: $id) }`
	return c.execute(ctx, "DeleteProject", query, map[string]any{"id": projectID}, nil)
}
