package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/interfaces/http/handlers/testutil"
)

type mockEnforcementService struct {
	decision    dto.DecisionResponse
	lastRequest governance.AccessRequest
	decisions   *dto.ListDecisionsResponse
	stats       *dto.DecisionStatsResponse
	err         error
}

func (m *mockEnforcementService) Evaluate(ctx context.Context, req governance.AccessRequest) dto.DecisionResponse {
	m.lastRequest = req
	return m.decision
}

func (m *mockEnforcementService) Decisions(ctx context.Context, req dto.ListDecisionsRequest) (*dto.ListDecisionsResponse, error) {
	return m.decisions, m.err
}

func (m *mockEnforcementService) Statistics(ctx context.Context, since *time.Time) (*dto.DecisionStatsResponse, error) {
	return m.stats, m.err
}

func TestEnforcementHandler_Evaluate_Success(t *testing.T) {
	svc := &mockEnforcementService{
		decision: dto.DecisionResponse{
			Allowed:     true,
			Source:      "allowlist_user",
			Reason:      "user allowlisted",
			EvaluatedAt: time.Now().UTC(),
		},
	}
	handler := NewEnforcementHandler(svc, testutil.NewMockLogger())

	reqBody := dto.EvaluateRequest{
		UserID:   "user-1",
		ToolName: "shell.exec",
		DeviceIP: "10.0.0.5",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/enforcement/evaluate", reqBody)

	handler.Evaluate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", svc.lastRequest.UserID)
	assert.Equal(t, "shell.exec", svc.lastRequest.ToolName)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.True(t, resp.Success)

	var decision dto.DecisionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &decision))
	assert.True(t, decision.Allowed)
	assert.Equal(t, "allowlist_user", decision.Source)
}

func TestEnforcementHandler_Evaluate_CarriesOverrideCredentials(t *testing.T) {
	svc := &mockEnforcementService{
		decision: dto.DecisionResponse{Allowed: true, Source: "override"},
	}
	handler := NewEnforcementHandler(svc, testutil.NewMockLogger())

	reqBody := dto.EvaluateRequest{
		UserID:            "user-1",
		ToolName:          "shell.exec",
		OverrideRequestID: "req-abc",
		OverridePIN:       "1234",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/enforcement/evaluate", reqBody)

	handler.Evaluate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-abc", svc.lastRequest.OverrideRequestID)
	assert.Equal(t, "1234", svc.lastRequest.OverridePIN)
}

func TestEnforcementHandler_Evaluate_InvalidRequest(t *testing.T) {
	handler := NewEnforcementHandler(&mockEnforcementService{}, testutil.NewMockLogger())

	reqBody := map[string]string{"user_id": "user-1"} // missing tool_name
	c, w := testutil.NewTestContext(http.MethodPost, "/enforcement/evaluate", reqBody)

	handler.Evaluate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.False(t, resp.Success)
}

func TestEnforcementHandler_ListDecisions(t *testing.T) {
	svc := &mockEnforcementService{
		decisions: &dto.ListDecisionsResponse{
			Decisions: []*dto.DecisionLogResponse{
				{ID: 1, UserID: "user-1", ToolName: "shell.exec", Allowed: false, Source: "time_rule"},
			},
			Total: 1,
		},
	}
	handler := NewEnforcementHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/enforcement/decisions", nil)
	testutil.SetQueryParams(c, map[string]string{"user_id": "user-1"})

	handler.ListDecisions(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.True(t, resp.Success)

	var list dto.ListDecisionsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, int64(1), list.Total)
}

func TestEnforcementHandler_Statistics_InvalidSince(t *testing.T) {
	handler := NewEnforcementHandler(&mockEnforcementService{}, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/enforcement/statistics", nil)
	testutil.SetQueryParams(c, map[string]string{"since": "yesterday"})

	handler.Statistics(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnforcementHandler_Statistics(t *testing.T) {
	svc := &mockEnforcementService{
		stats: &dto.DecisionStatsResponse{
			Total:   10,
			Allowed: 7,
			Denied:  3,
			BySource: map[string]int64{
				"policy":    6,
				"time_rule": 4,
			},
		},
	}
	handler := NewEnforcementHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/enforcement/statistics", nil)

	handler.Statistics(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var stats dto.DecisionStatsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(3), stats.Denied)
}
