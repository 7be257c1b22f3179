package services

import (
	"strings"

	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
)

var remoteStatusMap = map[string]vo.LifecycleStatus{
	"INITIALIZING":   vo.StatusInitializing,
	"QUEUED":         vo.StatusInitializing,
	"WAITING":        vo.StatusInitializing,
	"NEEDS_APPROVAL": vo.StatusInitializing,
	"BUILDING":       vo.StatusBuilding,
	"DEPLOYING":      vo.StatusDeploying,
	"SUCCESS":        vo.StatusRunning,
	"SLEEPING":       vo.StatusRunning,
	"FAILED":         vo.StatusFailed,
	"REMOVED":        vo.StatusFailed,
	"REMOVING":       vo.StatusFailed,
	"SKIPPED":        vo.StatusFailed,
	"CRASHED":        vo.StatusCrashed,
}

// MapRemoteStatus translates the platform's deployment status. Unknown and
// empty values map to initializing so the monitor keeps polling.
func MapRemoteStatus(remote string) vo.LifecycleStatus {
	if s, ok := remoteStatusMap[strings.ToUpper(strings.TrimSpace(remote))]; ok {
		return s
	}
	return vo.StatusInitializing
}

// publicURL returns the platform's static URL with an https scheme.
func publicURL(staticURL string) string {
	if staticURL == "" || strings.Contains(staticURL, "://") {
		return staticURL
	}
	return "https://" + staticURL
}
