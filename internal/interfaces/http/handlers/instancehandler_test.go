package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatchery-inc/hatchery/internal/application/instance/controlplane"
	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	"github.com/hatchery-inc/hatchery/internal/interfaces/http/handlers/testutil"
	"github.com/hatchery-inc/hatchery/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockGetInstanceUC struct {
	instance *dto.InstanceDTO
	progress *dto.ProgressDTO
	health   *dto.HealthDTO
	logs     []*dto.LogEntryDTO
	err      error

	gotLimit int
}

func (m *mockGetInstanceUC) Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error) {
	return m.instance, m.err
}

func (m *mockGetInstanceUC) Progress(ctx context.Context, sid string) (*dto.ProgressDTO, error) {
	return m.progress, m.err
}

func (m *mockGetInstanceUC) Health(ctx context.Context, sid string) (*dto.HealthDTO, error) {
	return m.health, m.err
}

func (m *mockGetInstanceUC) Logs(ctx context.Context, sid string, limit int) ([]*dto.LogEntryDTO, error) {
	m.gotLimit = limit
	return m.logs, m.err
}

type mockRedeployUC struct {
	result *dto.InstanceDTO
	err    error
}

func (m *mockRedeployUC) Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error) {
	return m.result, m.err
}

type mockDeleteUC struct {
	result *usecases.DeleteInstanceResult
	err    error
}

func (m *mockDeleteUC) Execute(ctx context.Context, sid string) (*usecases.DeleteInstanceResult, error) {
	return m.result, m.err
}

type mockUpdateVariablesUC struct {
	result *dto.InstanceDTO
	err    error
	got    usecases.UpdateInstanceVariablesCommand
}

func (m *mockUpdateVariablesUC) Execute(ctx context.Context, cmd usecases.UpdateInstanceVariablesCommand) (*dto.InstanceDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockStopUC struct {
	result *dto.InstanceDTO
	err    error
}

func (m *mockStopUC) Execute(ctx context.Context, sid string) (*dto.InstanceDTO, error) {
	return m.result, m.err
}

// =====================================================================
// Helpers
// =====================================================================

type instanceHandlerMocks struct {
	get      *mockGetInstanceUC
	redeploy *mockRedeployUC
	delete   *mockDeleteUC
	update   *mockUpdateVariablesUC
	stop     *mockStopUC
}

func newTestInstanceHandler() (*InstanceHandler, *instanceHandlerMocks) {
	m := &instanceHandlerMocks{
		get:      &mockGetInstanceUC{},
		redeploy: &mockRedeployUC{},
		delete:   &mockDeleteUC{},
		update:   &mockUpdateVariablesUC{},
		stop:     &mockStopUC{},
	}
	h := NewInstanceHandler(m.get, m.redeploy, m.delete, m.update, m.stop, testutil.NewMockLogger())
	return h, m
}

const testSID = "inst_4fK2pQ9xLm3N"

// =====================================================================
// Tests
// =====================================================================

func TestInstanceHandler_GetInstance(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, m := newTestInstanceHandler()
		m.get.instance = &dto.InstanceDTO{SID: testSID, Status: "running", Progress: 100}

		c, w := testutil.NewTestContext(http.MethodGet, "/instances/"+testSID, nil)
		testutil.SetURLParam(c, "sid", testSID)
		h.GetInstance(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.True(t, resp.Success)

		var got dto.InstanceDTO
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, testSID, got.SID)
		assert.Equal(t, 100, got.Progress)
	})

	t.Run("invalid sid", func(t *testing.T) {
		h, _ := newTestInstanceHandler()

		c, w := testutil.NewTestContext(http.MethodGet, "/instances/sub_123", nil)
		testutil.SetURLParam(c, "sid", "sub_123")
		h.GetInstance(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		h, m := newTestInstanceHandler()
		m.get.err = errors.NewNotFoundError("instance not found")

		c, w := testutil.NewTestContext(http.MethodGet, "/instances/"+testSID, nil)
		testutil.SetURLParam(c, "sid", testSID)
		h.GetInstance(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInstanceHandler_ProgressAndHealth(t *testing.T) {
	h, m := newTestInstanceHandler()
	m.get.progress = &dto.ProgressDTO{SID: testSID, Status: "deploying", Progress: 70}
	m.get.health = &dto.HealthDTO{SID: testSID, Status: "deploying", Health: "degraded"}

	c, w := testutil.NewTestContext(http.MethodGet, "/instances/"+testSID+"/progress", nil)
	testutil.SetURLParam(c, "sid", testSID)
	h.GetProgress(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"progress":70`)

	c, w = testutil.NewTestContext(http.MethodGet, "/instances/"+testSID+"/health", nil)
	testutil.SetURLParam(c, "sid", testSID)
	h.GetHealth(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"health":"degraded"`)
}

func TestInstanceHandler_GetLogs(t *testing.T) {
	tests := []struct {
		name      string
		query     map[string]string
		wantCode  int
		wantLimit int
	}{
		{"default limit", nil, http.StatusOK, 100},
		{"explicit limit", map[string]string{"limit": "20"}, http.StatusOK, 20},
		{"capped limit", map[string]string{"limit": "5000"}, http.StatusOK, 1000},
		{"invalid limit", map[string]string{"limit": "abc"}, http.StatusBadRequest, 0},
		{"zero limit", map[string]string{"limit": "0"}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestInstanceHandler()
			m.get.logs = []*dto.LogEntryDTO{{Level: "info", Message: "deploy triggered"}}

			c, w := testutil.NewTestContext(http.MethodGet, "/instances/"+testSID+"/logs", nil)
			testutil.SetURLParam(c, "sid", testSID)
			if tt.query != nil {
				testutil.SetQueryParams(c, tt.query)
			}
			h.GetLogs(c)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantLimit, m.get.gotLimit)
		})
	}
}

func TestInstanceHandler_Redeploy(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		h, m := newTestInstanceHandler()
		m.redeploy.result = &dto.InstanceDTO{SID: testSID, Status: "initializing"}

		c, w := testutil.NewTestContext(http.MethodPost, "/instances/"+testSID+"/redeploy", nil)
		testutil.SetURLParam(c, "sid", testSID)
		h.Redeploy(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("deleted instance is a conflict", func(t *testing.T) {
		h, m := newTestInstanceHandler()
		m.redeploy.err = fmt.Errorf("cannot redeploy: %w", instance.ErrInstanceDeleted)

		c, w := testutil.NewTestContext(http.MethodPost, "/instances/"+testSID+"/redeploy", nil)
		testutil.SetURLParam(c, "sid", testSID)
		h.Redeploy(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("control plane failure is a bad gateway", func(t *testing.T) {
		h, m := newTestInstanceHandler()
		m.redeploy.err = &controlplane.Error{Operation: "TriggerRedeploy", Message: "boom", HTTPStatus: 500}

		c, w := testutil.NewTestContext(http.MethodPost, "/instances/"+testSID+"/redeploy", nil)
		testutil.SetURLParam(c, "sid", testSID)
		h.Redeploy(c)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, string(errors.ErrorTypeUpstream), resp.Error.Type)
	})
}

func TestInstanceHandler_DeleteInstance(t *testing.T) {
	h, m := newTestInstanceHandler()
	m.delete.result = &usecases.DeleteInstanceResult{ServiceDeleted: true, ProjectDeleted: false}

	c, w := testutil.NewTestContext(http.MethodDelete, "/instances/"+testSID, nil)
	testutil.SetURLParam(c, "sid", testSID)
	h.DeleteInstance(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var got DeleteInstanceResponse
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.True(t, got.ServiceDeleted)
	assert.False(t, got.ProjectDeleted)
}

func TestInstanceHandler_UpdateVariables(t *testing.T) {
	t.Run("passes command through", func(t *testing.T) {
		h, m := newTestInstanceHandler()
		m.update.result = &dto.InstanceDTO{SID: testSID}

		body := map[string]any{"variables": map[string]string{"LOG_LEVEL": "debug"}, "redeploy": true}
		c, w := testutil.NewTestContext(http.MethodPut, "/instances/"+testSID+"/variables", body)
		testutil.SetURLParam(c, "sid", testSID)
		h.UpdateVariables(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, testSID, m.update.got.SID)
		assert.Equal(t, "debug", m.update.got.Variables["LOG_LEVEL"])
		assert.True(t, m.update.got.Redeploy)
	})

	t.Run("missing variables", func(t *testing.T) {
		h, _ := newTestInstanceHandler()

		c, w := testutil.NewTestContext(http.MethodPut, "/instances/"+testSID+"/variables", map[string]any{})
		testutil.SetURLParam(c, "sid", testSID)
		h.UpdateVariables(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInstanceHandler_StopInstance(t *testing.T) {
	h, m := newTestInstanceHandler()
	m.stop.err = fmt.Errorf("update: %w", instance.ErrConcurrentModification)

	c, w := testutil.NewTestContext(http.MethodPost, "/instances/"+testSID+"/stop", nil)
	testutil.SetURLParam(c, "sid", testSID)
	h.StopInstance(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
