package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleStatus_ProgressAndHealth(t *testing.T) {
	tests := []struct {
		status   LifecycleStatus
		progress int
		health   Health
		terminal bool
	}{
		{StatusInitializing, 10, HealthDegraded, false},
		{StatusBuilding, 30, HealthUnknown, false},
		{StatusDeploying, 70, HealthDegraded, false},
		{StatusRunning, 100, HealthHealthy, true},
		{StatusFailed, 0, HealthUnhealthy, true},
		{StatusCrashed, 0, HealthUnknown, true},
		{StatusStopped, 0, HealthUnknown, true},
		{StatusDeleted, 0, HealthUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.progress, tt.status.Progress())
			assert.Equal(t, tt.health, tt.status.Health())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, !tt.terminal, tt.status.IsPending())
		})
	}
}

func TestLifecycleStatus_Rank(t *testing.T) {
	assert.Less(t, StatusInitializing.Rank(), StatusBuilding.Rank())
	assert.Less(t, StatusBuilding.Rank(), StatusDeploying.Rank())
	assert.Less(t, StatusDeploying.Rank(), StatusRunning.Rank())
	assert.False(t, LifecycleStatus("paused").IsValid())
	assert.False(t, LifecycleStatus("paused").IsPending())
}
