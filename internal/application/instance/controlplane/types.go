package controlplane

type Project struct {
	ID           string
	Name         string
	Environments []Environment
	Services     []Service
}

// EnvironmentByName returns the project's environment called name, if any.
func (p *Project) EnvironmentByName(name string) (Environment, bool) {
	for _, env := range p.Environments {
		if env.Name == name {
			return env, true
		}
	}
	return Environment{}, false
}

type Environment struct {
	ID   string
	Name string
}

// ServiceSource is what a service builds from; new services copy the template's.
type ServiceSource struct {
	Repo  string
	Image string
}

type Service struct {
	ID        string
	Name      string
	ProjectID string
	Source    ServiceSource
}

type CreateServiceInput struct {
	ProjectID string
	Name      string
	Source    ServiceSource
}

// ServiceRef addresses the variables of one service in one environment.
type ServiceRef struct {
	ProjectID     string
	EnvironmentID string
	ServiceID     string
}

// Deployment is the remote view of one deployment. Status is the platform's
// raw vocabulary (SUCCESS, BUILDING, CRASHED, ...).
type Deployment struct {
	ID        string
	Status    string
	StaticURL string
}
