package valueobjects

// LifecycleStatus is the local view of an instance's deployment.
//
//	initializing -> building -> deploying -> running
//	                                      \-> failed | crashed
//
// stopped and deleted are set by operators and never by the remote platform.
type LifecycleStatus string

const (
	StatusInitializing LifecycleStatus = "initializing"
	StatusBuilding     LifecycleStatus = "building"
	StatusDeploying    LifecycleStatus = "deploying"
	StatusRunning      LifecycleStatus = "running"
	StatusFailed       LifecycleStatus = "failed"
	StatusCrashed      LifecycleStatus = "crashed"
	StatusStopped      LifecycleStatus = "stopped"
	StatusDeleted      LifecycleStatus = "deleted"
)

var statusRank = map[LifecycleStatus]int{
	StatusInitializing: 0,
	StatusBuilding:     1,
	StatusDeploying:    2,
	StatusRunning:      3,
	StatusFailed:       3,
	StatusCrashed:      3,
	StatusStopped:      4,
	StatusDeleted:      5,
}

// PendingStatuses are the non-terminal statuses the monitor keeps polling.
var PendingStatuses = []LifecycleStatus{StatusInitializing, StatusBuilding, StatusDeploying}

func (s LifecycleStatus) String() string {
	return string(s)
}

func (s LifecycleStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank orders statuses along the deployment timeline.
func (s LifecycleStatus) Rank() int {
	return statusRank[s]
}

func (s LifecycleStatus) IsTerminal() bool {
	switch s {
	case StatusRunning, StatusFailed, StatusCrashed, StatusStopped, StatusDeleted:
		return true
	}
	return false
}

func (s LifecycleStatus) IsPending() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s LifecycleStatus) IsFailure() bool {
	return s == StatusFailed || s == StatusCrashed
}

// Progress is the coarse percentage shown to tenants while they wait.
func (s LifecycleStatus) Progress() int {
	switch s {
	case StatusInitializing:
		return 10
	case StatusBuilding:
		return 30
	case StatusDeploying:
		return 70
	case StatusRunning:
		return 100
	}
	return 0
}

type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
	HealthUnknown   Health = "unknown"
)

func (s LifecycleStatus) Health() Health {
	switch s {
	case StatusRunning:
		return HealthHealthy
	case StatusInitializing, StatusDeploying:
		return HealthDegraded
	case StatusFailed:
		return HealthUnhealthy
	}
	return HealthUnknown
}
