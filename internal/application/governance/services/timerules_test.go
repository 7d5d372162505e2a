package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/application/governance/dto"
)

func newTimeRuleFixture(t *testing.T) *TimeRuleService {
	t.Helper()
	return NewTimeRuleService(newMemTimeRuleRepo(), 0, testLogger())
}

func TestTimeRuleService_LowestPriorityValueWins(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "log-all", Action: "log", StartTime: "00:00", EndTime: "23:59", Priority: 100,
	}, "admin")
	require.NoError(t, err)
	_, err = svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "block-all", Action: "block", StartTime: "00:00", EndTime: "23:59", Priority: 10,
	}, "admin")
	require.NoError(t, err)

	rule, err := svc.Check(ctx, time.Now())
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "block-all", rule.Name())
}

func TestTimeRuleService_PriorityTieGoesToOlderRule(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "first", Action: "alert", StartTime: "00:00", EndTime: "23:59", Priority: 5,
	}, "admin")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "second", Action: "block", StartTime: "00:00", EndTime: "23:59", Priority: 5,
	}, "admin")
	require.NoError(t, err)

	rule, err := svc.Check(ctx, time.Now())
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "first", rule.Name())
}

func TestTimeRuleService_DuplicateNameConflicts(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	req := dto.CreateTimeRuleRequest{Name: "dup", Action: "block", StartTime: "09:00", EndTime: "17:00"}
	_, err := svc.Create(ctx, req, "admin")
	require.NoError(t, err)

	_, err = svc.Create(ctx, req, "admin")
	assert.Error(t, err)
}

func TestTimeRuleService_DisabledRuleIgnored(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "block-all", Action: "block", StartTime: "00:00", EndTime: "23:59",
	}, "admin")
	require.NoError(t, err)

	disabled := false
	_, err = svc.Update(ctx, created.ID, dto.UpdateTimeRuleRequest{Enabled: &disabled})
	require.NoError(t, err)

	rule, err := svc.Check(ctx, time.Now())
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestTimeRuleService_RemoveDisablesButKeepsRule(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "block-all", Action: "block", StartTime: "00:00", EndTime: "23:59", Priority: 10,
	}, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID))

	// The removed rule no longer matches anything.
	rule, err := svc.Check(ctx, time.Now())
	require.NoError(t, err)
	assert.Nil(t, rule)

	// But it is still there, disabled, for the audit trail.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	assert.Error(t, svc.Remove(ctx, created.ID+99))
}

func TestTimeRuleService_CheckNowReportsMatch(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	resp, err := svc.CheckNow(ctx)
	require.NoError(t, err)
	assert.False(t, resp.Matched)

	_, err = svc.Create(ctx, dto.CreateTimeRuleRequest{
		Name: "watch", Action: "alert", StartTime: "00:00", EndTime: "23:59",
	}, "admin")
	require.NoError(t, err)

	resp, err = svc.CheckNow(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Matched)
	assert.Equal(t, "alert", resp.Action)
	require.NotNil(t, resp.Rule)
	assert.Equal(t, "watch", resp.Rule.Name)
}

func TestTimeRuleService_InvalidInputs(t *testing.T) {
	svc := newTimeRuleFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.CreateTimeRuleRequest
	}{
		{"bad action", dto.CreateTimeRuleRequest{Name: "r", Action: "nuke", StartTime: "09:00", EndTime: "17:00"}},
		{"bad time", dto.CreateTimeRuleRequest{Name: "r", Action: "block", StartTime: "9am", EndTime: "17:00"}},
		{"bad weekday", dto.CreateTimeRuleRequest{Name: "r", Action: "block", StartTime: "09:00", EndTime: "17:00", DaysOfWeek: []int{7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req, "admin")
			assert.Error(t, err)
		})
	}
}
