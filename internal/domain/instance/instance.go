package instance

import (
	"fmt"
	"maps"
	"time"

	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/id"
)

// Instance is a tenant deployment cloned from the template. It is created
// after the remote service exists and a deployment has been triggered.
type Instance struct {
	id                    uint
	sid                   string
	subscriptionID        uint
	ownerID               uint
	name                  string
	projectID             string
	serviceID             string
	environmentID         string
	deploymentID          string
	status                vo.LifecycleStatus
	publicURL             string
	errorMessage          string
	needsAttention        bool
	variables             map[string]string
	logs                  []vo.LogEntry
	deploymentStartedAt   time.Time
	deploymentUpdatedAt   *time.Time
	deploymentCompletedAt *time.Time
	version               int
	createdAt             time.Time
	updatedAt             time.Time
}

// NewInstanceParams describes a freshly provisioned remote deployment.
type NewInstanceParams struct {
	SubscriptionID uint
	OwnerID        uint
	Name           string
	ProjectID      string
	ServiceID      string
	EnvironmentID  string
	DeploymentID   string
	// Variables must already be redacted.
	Variables map[string]string
}

func NewInstance(p NewInstanceParams) (*Instance, error) {
	if p.SubscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if p.Name == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if p.ProjectID == "" || p.ServiceID == "" || p.EnvironmentID == "" {
		return nil, fmt.Errorf("project, service and environment IDs are required")
	}

	sid, err := id.NewInstanceID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate instance ID: %w", err)
	}

	now := time.Now().UTC()
	inst := &Instance{
		sid:                 sid,
		subscriptionID:      p.SubscriptionID,
		ownerID:             p.OwnerID,
		name:                p.Name,
		projectID:           p.ProjectID,
		serviceID:           p.ServiceID,
		environmentID:       p.EnvironmentID,
		deploymentID:        p.DeploymentID,
		status:              vo.StatusInitializing,
		variables:           maps.Clone(p.Variables),
		deploymentStartedAt: now,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}
	inst.AppendLog(vo.LogInfo, fmt.Sprintf("instance %s created, deployment %s triggered", p.Name, p.DeploymentID))
	return inst, nil
}

type InstanceReconstructParams struct {
	ID                    uint
	SID                   string
	SubscriptionID        uint
	OwnerID               uint
	Name                  string
	ProjectID             string
	ServiceID             string
	EnvironmentID         string
	DeploymentID          string
	Status                vo.LifecycleStatus
	PublicURL             string
	ErrorMessage          string
	NeedsAttention        bool
	Variables             map[string]string
	Logs                  []vo.LogEntry
	DeploymentStartedAt   time.Time
	DeploymentUpdatedAt   *time.Time
	DeploymentCompletedAt *time.Time
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func ReconstructInstance(p InstanceReconstructParams) (*Instance, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("instance ID cannot be zero")
	}
	if !p.Status.IsValid() {
		return nil, fmt.Errorf("invalid lifecycle status: %s", p.Status)
	}

	logs := p.Logs
	if len(logs) > vo.MaxLogEntries {
		logs = logs[:vo.MaxLogEntries]
	}

	return &Instance{
		id:                    p.ID,
		sid:                   p.SID,
		subscriptionID:        p.SubscriptionID,
		ownerID:               p.OwnerID,
		name:                  p.Name,
		projectID:             p.ProjectID,
		serviceID:             p.ServiceID,
		environmentID:         p.EnvironmentID,
		deploymentID:          p.DeploymentID,
		status:                p.Status,
		publicURL:             p.PublicURL,
		errorMessage:          p.ErrorMessage,
		needsAttention:        p.NeedsAttention,
		variables:             p.Variables,
		logs:                  logs,
		deploymentStartedAt:   p.DeploymentStartedAt,
		deploymentUpdatedAt:   p.DeploymentUpdatedAt,
		deploymentCompletedAt: p.DeploymentCompletedAt,
		version:               p.Version,
		createdAt:             p.CreatedAt,
		updatedAt:             p.UpdatedAt,
	}, nil
}

func (i *Instance) ID() uint { return i.id }
func (i *Instance) SID() string { return i.sid }
func (i *Instance) SubscriptionID() uint { return i.subscriptionID }
func (i *Instance) OwnerID() uint { return i.ownerID }
func (i *Instance) Name() string { return i.name }
func (i *Instance) ProjectID() string { return i.projectID }
func (i *Instance) ServiceID() string { return i.serviceID }
func (i *Instance) EnvironmentID() string { return i.environmentID }
func (i *Instance) DeploymentID() string { return i.deploymentID }
func (i *Instance) Status() vo.LifecycleStatus { return i.status }
func (i *Instance) PublicURL() string { return i.publicURL }
func (i *Instance) ErrorMessage() string { return i.errorMessage }
func (i *Instance) NeedsAttention() bool { return i.needsAttention }
func (i *Instance) DeploymentStartedAt() time.Time { return i.deploymentStartedAt }
func (i *Instance) DeploymentUpdatedAt() *time.Time { return i.deploymentUpdatedAt }
func (i *Instance) DeploymentCompletedAt() *time.Time { return i.deploymentCompletedAt }
func (i *Instance) Version() int { return i.version }
func (i *Instance) CreatedAt() time.Time { return i.createdAt }
func (i *Instance) UpdatedAt() time.Time { return i.updatedAt }

// Variables returns a copy of the redacted variable snapshot.
func (i *Instance) Variables() map[string]string {
	return maps.Clone(i.variables)
}

// Logs returns the log history, newest first.
func (i *Instance) Logs() []vo.LogEntry {
	return append([]vo.LogEntry(nil), i.logs...)
}

// RecentLogs returns at most limit entries, newest first.
func (i *Instance) RecentLogs(limit int) []vo.LogEntry {
	if limit <= 0 || limit > len(i.logs) {
		limit = len(i.logs)
	}
	return append([]vo.LogEntry(nil), i.logs[:limit]...)
}

// SetID sets the instance ID (only for persistence layer use)
func (i *Instance) SetID(id uint) error {
	if i.id != 0 {
		return fmt.Errorf("instance ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("instance ID cannot be zero")
	}
	i.id = id
	return nil
}

// SetVersion records the version stored by the repository (only for persistence layer use)
func (i *Instance) SetVersion(v int) {
	i.version = v
}

// ApplyResult describes what ApplyDeploymentStatus did with an observation.
type ApplyResult int

const (
	Applied ApplyResult = iota
	Unchanged
	IgnoredRegression
	IgnoredTerminal
)

func (r ApplyResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Unchanged:
		return "unchanged"
	case IgnoredRegression:
		return "ignored_regression"
	case IgnoredTerminal:
		return "ignored_terminal"
	}
	return "unknown"
}

// ApplyDeploymentStatus folds one remote observation into the local state.
// Terminal states are final and an observation ranked below the current
// status is ignored, so out-of-order remote reports cannot move the
// instance backwards. remoteStatus is the raw platform value, kept for the
// error message.
func (i *Instance) ApplyDeploymentStatus(observed vo.LifecycleStatus, remoteStatus, url string, now time.Time) ApplyResult {
	if i.status.IsTerminal() {
		return IgnoredTerminal
	}
	if observed == i.status {
		return Unchanged
	}
	if observed.Rank() < i.status.Rank() {
		return IgnoredRegression
	}

	from := i.status
	i.status = observed
	i.deploymentUpdatedAt = &now

	switch {
	case observed == vo.StatusRunning:
		i.publicURL = url
		i.errorMessage = ""
		i.needsAttention = false
		i.deploymentCompletedAt = &now
		i.AppendLog(vo.LogInfo, fmt.Sprintf("deployment %s is running", i.deploymentID))
	case observed.IsFailure():
		i.errorMessage = fmt.Sprintf("deployment %s ended with remote status %s", i.deploymentID, remoteStatus)
		i.deploymentCompletedAt = &now
		i.AppendLog(vo.LogError, i.errorMessage)
	default:
		i.AppendLog(vo.LogInfo, fmt.Sprintf("status %s -> %s", from, observed))
	}

	i.touch()
	return Applied
}

// FlagNeedsAttention marks a deployment that has been pending longer than
// threshold. It reports whether the flag changed.
func (i *Instance) FlagNeedsAttention(now time.Time, threshold time.Duration) bool {
	if i.needsAttention || !i.status.IsPending() {
		return false
	}
	if now.Sub(i.deploymentStartedAt) <= threshold {
		return false
	}

	i.needsAttention = true
	i.AppendLog(vo.LogWarn, fmt.Sprintf("deployment still %s after %s", i.status, threshold))
	i.touch()
	return true
}

// RestartDeployment starts a new deployment timeline after a redeploy.
func (i *Instance) RestartDeployment(deploymentID string) error {
	if i.status == vo.StatusDeleted {
		return ErrInstanceDeleted
	}
	if deploymentID == "" {
		return fmt.Errorf("deployment ID is required")
	}

	now := time.Now().UTC()
	i.deploymentID = deploymentID
	i.status = vo.StatusInitializing
	i.errorMessage = ""
	i.needsAttention = false
	i.deploymentStartedAt = now
	i.deploymentUpdatedAt = nil
	i.deploymentCompletedAt = nil
	i.AppendLog(vo.LogInfo, fmt.Sprintf("redeploy triggered, deployment %s", deploymentID))
	i.touch()
	return nil
}

// ReplaceVariables stores a new redacted variable snapshot.
func (i *Instance) ReplaceVariables(redacted map[string]string) error {
	if i.status == vo.StatusDeleted {
		return ErrInstanceDeleted
	}
	i.variables = maps.Clone(redacted)
	i.AppendLog(vo.LogInfo, fmt.Sprintf("%d variables updated", len(redacted)))
	i.touch()
	return nil
}

func (i *Instance) MarkStopped() error {
	if i.status == vo.StatusDeleted {
		return ErrInstanceDeleted
	}
	if i.status == vo.StatusStopped {
		return nil
	}
	i.status = vo.StatusStopped
	i.needsAttention = false
	i.AppendLog(vo.LogInfo, "instance stopped by operator")
	i.touch()
	return nil
}

// MarkDeleted is a soft delete; the row and its history remain.
func (i *Instance) MarkDeleted() {
	if i.status == vo.StatusDeleted {
		return
	}
	i.status = vo.StatusDeleted
	i.needsAttention = false
	i.AppendLog(vo.LogInfo, "instance deleted")
	i.touch()
}

// AppendLog prepends an entry and drops the oldest beyond MaxLogEntries.
func (i *Instance) AppendLog(level vo.LogLevel, message string) {
	entry := vo.LogEntry{Timestamp: time.Now().UTC(), Level: level, Message: message}
	i.logs = append(i.logs, vo.LogEntry{})
	copy(i.logs[1:], i.logs)
	i.logs[0] = entry
	if len(i.logs) > vo.MaxLogEntries {
		i.logs = i.logs[:vo.MaxLogEntries]
	}
}

func (i *Instance) touch() {
	i.updatedAt = time.Now().UTC()
}
