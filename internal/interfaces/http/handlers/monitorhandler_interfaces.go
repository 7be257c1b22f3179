package handlers

import (
	"context"

	"github.com/hatchery-inc/hatchery/internal/application/instance/services"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
)

type deploymentMonitor interface {
	GetStats(ctx context.Context) (*services.MonitorStats, error)
	ListMonitored(ctx context.Context) ([]*instance.Instance, error)
	ManualCheck(ctx context.Context, sid string) (*services.SweepResult, *services.CheckResult, error)
	StopMonitoringBySID(ctx context.Context, sid string) (bool, error)
}
