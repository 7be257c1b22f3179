package dto

import (
	"time"

	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/mapper"
)

// InstanceDTO is the operator view of an instance. Variables are redacted.
type InstanceDTO struct {
	SID                   string            `json:"id"`
	SubscriptionID        uint              `json:"subscription_id"`
	OwnerID               uint              `json:"owner_id"`
	Name                  string            `json:"name"`
	ProjectID             string            `json:"project_id"`
	ServiceID             string            `json:"service_id"`
	EnvironmentID         string            `json:"environment_id"`
	DeploymentID          string            `json:"deployment_id"`
	Status                string            `json:"status"`
	Progress              int               `json:"progress"`
	Health                string            `json:"health"`
	PublicURL             string            `json:"public_url,omitempty"`
	ErrorMessage          string            `json:"error_message,omitempty"`
	NeedsAttention        bool              `json:"needs_attention"`
	Variables             map[string]string `json:"variables"`
	DeploymentStartedAt   time.Time         `json:"deployment_started_at"`
	DeploymentUpdatedAt   *time.Time        `json:"deployment_updated_at,omitempty"`
	DeploymentCompletedAt *time.Time        `json:"deployment_completed_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type ProgressDTO struct {
	SID      string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type HealthDTO struct {
	SID            string `json:"id"`
	Status         string `json:"status"`
	Health         string `json:"health"`
	NeedsAttention bool   `json:"needs_attention"`
	PublicURL      string `json:"public_url,omitempty"`
}

type LogEntryDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// MonitorStatsDTO summarises persisted instances for operators.
type MonitorStatsDTO struct {
	Total            int64 `json:"total"`
	Running          int64 `json:"running"`
	Failed           int64 `json:"failed"`
	Pending          int64 `json:"pending"`
	NeedingAttention int64 `json:"needing_attention"`
	Tracked          int   `json:"tracked"`
}

type SweepResultDTO struct {
	Checked     int    `json:"checked"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Transitions int    `json:"transitions"`
	Duration    string `json:"duration"`
}

type CheckResultDTO struct {
	SID            string `json:"id"`
	Previous       string `json:"previous_status"`
	Current        string `json:"current_status"`
	RemoteStatus   string `json:"remote_status"`
	Outcome        string `json:"outcome"`
	NeedsAttention bool   `json:"needs_attention"`
}

func ToInstanceDTO(inst *instance.Instance) *InstanceDTO {
	if inst == nil {
		return nil
	}
	return &InstanceDTO{
		SID:                   inst.SID(),
		SubscriptionID:        inst.SubscriptionID(),
		OwnerID:               inst.OwnerID(),
		Name:                  inst.Name(),
		ProjectID:             inst.ProjectID(),
		ServiceID:             inst.ServiceID(),
		EnvironmentID:         inst.EnvironmentID(),
		DeploymentID:          inst.DeploymentID(),
		Status:                inst.Status().String(),
		Progress:              inst.Status().Progress(),
		Health:                string(inst.Status().Health()),
		PublicURL:             inst.PublicURL(),
		ErrorMessage:          inst.ErrorMessage(),
		NeedsAttention:        inst.NeedsAttention(),
		Variables:             inst.Variables(),
		DeploymentStartedAt:   inst.DeploymentStartedAt(),
		DeploymentUpdatedAt:   inst.DeploymentUpdatedAt(),
		DeploymentCompletedAt: inst.DeploymentCompletedAt(),
		CreatedAt:             inst.CreatedAt(),
		UpdatedAt:             inst.UpdatedAt(),
	}
}

func ToProgressDTO(inst *instance.Instance) *ProgressDTO {
	return &ProgressDTO{
		SID:      inst.SID(),
		Status:   inst.Status().String(),
		Progress: inst.Status().Progress(),
	}
}

func ToHealthDTO(inst *instance.Instance) *HealthDTO {
	return &HealthDTO{
		SID:            inst.SID(),
		Status:         inst.Status().String(),
		Health:         string(inst.Status().Health()),
		NeedsAttention: inst.NeedsAttention(),
		PublicURL:      inst.PublicURL(),
	}
}

func ToLogEntryDTO(e vo.LogEntry) *LogEntryDTO {
	return &LogEntryDTO{
		Timestamp: e.Timestamp,
		Level:     string(e.Level),
		Message:   e.Message,
	}
}

func ToLogEntryDTOList(entries []vo.LogEntry) []*LogEntryDTO {
	return mapper.MapSlice(entries, ToLogEntryDTO)
}

func ToMonitorStatsDTO(s *services.MonitorStats) *MonitorStatsDTO {
	return &MonitorStatsDTO{
		Total:            s.Total,
		Running:          s.Running,
		Failed:           s.Failed,
		Pending:          s.Pending,
		NeedingAttention: s.NeedingAttention,
		Tracked:          s.Tracked,
	}
}

func ToSweepResultDTO(r *services.SweepResult) *SweepResultDTO {
	return &SweepResultDTO{
		Checked:     r.Checked,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		Transitions: r.Transitions,
		Duration:    r.Duration.String(),
	}
}

func ToCheckResultDTO(r *services.CheckResult) *CheckResultDTO {
	return &CheckResultDTO{
		SID:            r.InstanceSID,
		Previous:       r.Previous.String(),
		Current:        r.Current.String(),
		RemoteStatus:   r.RemoteStatus,
		Outcome:        r.Outcome.String(),
		NeedsAttention: r.NeedsAttention,
	}
}
