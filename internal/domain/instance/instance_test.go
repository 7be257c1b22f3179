package instance

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/hatchery-inc/hatchery/internal/domain/instance/valueobjects"
)

func newTestInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewInstance(NewInstanceParams{
		SubscriptionID: 1,
		OwnerID:        42,
		Name:           "hatch-pro-1700000000000",
		ProjectID:      "proj-1",
		ServiceID:      "svc-1",
		EnvironmentID:  "env-1",
		DeploymentID:   "dep-1",
		Variables:      map[string]string{"EXECUTION_MODE": "production", "FEISHU_SECRET": "***"},
	})
	require.NoError(t, err)
	return inst
}

func TestNewInstance(t *testing.T) {
	inst := newTestInstance(t)

	assert.True(t, strings.HasPrefix(inst.SID(), "inst_"))
	assert.Equal(t, vo.StatusInitializing, inst.Status())
	assert.Len(t, inst.Logs(), 1)
	assert.Equal(t, "***", inst.Variables()["FEISHU_SECRET"])
}

func TestNewInstance_RequiresRemoteIDs(t *testing.T) {
	_, err := NewInstance(NewInstanceParams{SubscriptionID: 1, Name: "x", ProjectID: "p"})
	assert.Error(t, err)
}

func TestApplyDeploymentStatus_ForwardProgress(t *testing.T) {
	inst := newTestInstance(t)
	now := time.Now().UTC()

	assert.Equal(t, Applied, inst.ApplyDeploymentStatus(vo.StatusBuilding, "BUILDING", "", now))
	assert.Equal(t, Unchanged, inst.ApplyDeploymentStatus(vo.StatusBuilding, "BUILDING", "", now))
	assert.Equal(t, Applied, inst.ApplyDeploymentStatus(vo.StatusRunning, "SUCCESS", "https://x.up.app", now))

	assert.Equal(t, vo.StatusRunning, inst.Status())
	assert.Equal(t, "https://x.up.app", inst.PublicURL())
	require.NotNil(t, inst.DeploymentCompletedAt())
}

func TestApplyDeploymentStatus_IgnoresRegression(t *testing.T) {
	inst := newTestInstance(t)
	now := time.Now().UTC()

	require.Equal(t, Applied, inst.ApplyDeploymentStatus(vo.StatusDeploying, "DEPLOYING", "", now))
	assert.Equal(t, IgnoredRegression, inst.ApplyDeploymentStatus(vo.StatusBuilding, "BUILDING", "", now))
	assert.Equal(t, vo.StatusDeploying, inst.Status())
}

func TestApplyDeploymentStatus_TerminalIsFinal(t *testing.T) {
	inst := newTestInstance(t)
	now := time.Now().UTC()

	require.Equal(t, Applied, inst.ApplyDeploymentStatus(vo.StatusFailed, "FAILED", "", now))
	assert.Contains(t, inst.ErrorMessage(), "FAILED")
	assert.Equal(t, vo.LogError, inst.Logs()[0].Level)

	assert.Equal(t, IgnoredTerminal, inst.ApplyDeploymentStatus(vo.StatusRunning, "SUCCESS", "u", now))
	assert.Equal(t, vo.StatusFailed, inst.Status())
}

func TestFlagNeedsAttention(t *testing.T) {
	inst := newTestInstance(t)
	start := inst.DeploymentStartedAt()

	assert.False(t, inst.FlagNeedsAttention(start.Add(time.Minute), 5*time.Minute))
	assert.True(t, inst.FlagNeedsAttention(start.Add(6*time.Minute), 5*time.Minute))
	assert.False(t, inst.FlagNeedsAttention(start.Add(7*time.Minute), 5*time.Minute))
	assert.True(t, inst.NeedsAttention())

	inst.ApplyDeploymentStatus(vo.StatusRunning, "SUCCESS", "u", time.Now())
	assert.False(t, inst.NeedsAttention())
}

func TestRestartDeployment(t *testing.T) {
	inst := newTestInstance(t)
	inst.ApplyDeploymentStatus(vo.StatusCrashed, "CRASHED", "", time.Now())

	require.NoError(t, inst.RestartDeployment("dep-2"))
	assert.Equal(t, vo.StatusInitializing, inst.Status())
	assert.Equal(t, "dep-2", inst.DeploymentID())
	assert.Empty(t, inst.ErrorMessage())
	assert.Nil(t, inst.DeploymentCompletedAt())
}

func TestMarkDeleted_BlocksFurtherChanges(t *testing.T) {
	inst := newTestInstance(t)
	inst.MarkDeleted()

	assert.Equal(t, vo.StatusDeleted, inst.Status())
	assert.True(t, errors.Is(inst.RestartDeployment("dep-9"), ErrInstanceDeleted))
	assert.True(t, errors.Is(inst.MarkStopped(), ErrInstanceDeleted))
	assert.True(t, errors.Is(inst.ReplaceVariables(nil), ErrInstanceDeleted))
}

func TestMarkStopped(t *testing.T) {
	inst := newTestInstance(t)
	require.NoError(t, inst.MarkStopped())
	assert.True(t, inst.Status().IsTerminal())
}

func TestAppendLog_RingBuffer(t *testing.T) {
	inst := newTestInstance(t)
	for n := 0; n < vo.MaxLogEntries+10; n++ {
		inst.AppendLog(vo.LogInfo, fmt.Sprintf("line %d", n))
	}

	logs := inst.Logs()
	require.Len(t, logs, vo.MaxLogEntries)
	assert.Equal(t, fmt.Sprintf("line %d", vo.MaxLogEntries+9), logs[0].Message)

	recent := inst.RecentLogs(3)
	require.Len(t, recent, 3)
	assert.Equal(t, logs[:3], recent)
}
