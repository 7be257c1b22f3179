package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

var ErrWaitTimeout = errors.New("timed out waiting for deployment")

// DeploymentFailedError is returned by Wait when the deployment reached a
// failure state.
type DeploymentFailedError struct {
	DeploymentID string
	Status       vo.LifecycleStatus
	RemoteStatus string
}

func (e *DeploymentFailedError) Error() string {
	return fmt.Sprintf("deployment %s %s (remote status %s)", e.DeploymentID, e.Status, e.RemoteStatus)
}

type WaitResult struct {
	Success bool
	Status  vo.LifecycleStatus
	URL     string
}

// DeploymentWaiter polls one deployment until it settles. It is the
// synchronous counterpart of the monitor's trackers and writes nothing.
type DeploymentWaiter struct {
	api      controlplane.API
	interval time.Duration
	timeout  time.Duration
	logger   logger.Interface
}

func NewDeploymentWaiter(api controlplane.API, interval, timeout time.Duration, logger logger.Interface) *DeploymentWaiter {
	return &DeploymentWaiter{
		api:      api,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

func (w *DeploymentWaiter) Wait(ctx context.Context, deploymentID string) (*WaitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		dep, err := w.api.GetDeploymentStatus(ctx, deploymentID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, w.timeoutErr(ctx, deploymentID)
			}
			w.logger.Warnw("deployment status poll failed", "deployment_id", deploymentID, "error", err)
		} else {
			status := MapRemoteStatus(dep.Status)
			switch {
			case status == vo.StatusRunning:
				return &WaitResult{Success: true, Status: status, URL: publicURL(dep.StaticURL)}, nil
			case status.IsFailure():
				return nil, &DeploymentFailedError{DeploymentID: deploymentID, Status: status, RemoteStatus: dep.Status}
			}
			w.logger.Debugw("deployment still pending", "deployment_id", deploymentID, "status", status)
		}

		select {
		case <-ctx.Done():
			return nil, w.timeoutErr(ctx, deploymentID)
		case <-ticker.C:
		}
	}
}

func (w *DeploymentWaiter) timeoutErr(ctx context.Context, deploymentID string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("deployment %s after %s: %w", deploymentID, w.timeout, ErrWaitTimeout)
	}
	return ctx.Err()
}
