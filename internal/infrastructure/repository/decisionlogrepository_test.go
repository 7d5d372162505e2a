package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/domain/governance"
)

func appendTestDecision(t *testing.T, repo governance.DecisionLogRepository, userID, tool string, allowed bool, source governance.DecisionSource) {
	t.Helper()
	req := governance.AccessRequest{UserID: userID, ToolName: tool, DeviceIP: "10.0.0.5"}
	var d governance.Decision
	if allowed {
		d = governance.Allow(source, "ok")
	} else {
		d = governance.Deny(source, "blocked")
	}
	d.Elapsed = 4 * time.Millisecond
	require.NoError(t, repo.Append(context.Background(), governance.NewDecisionLog(req, d)))
}

func TestDecisionLogRepository_AppendAndList(t *testing.T) {
	repo := NewDecisionLogRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	appendTestDecision(t, repo, "alice", "shell_exec", true, governance.DecisionSourceAllowlistUser)
	appendTestDecision(t, repo, "alice", "file_write", false, governance.DecisionSourceTimeRule)
	appendTestDecision(t, repo, "bob", "shell_exec", true, governance.DecisionSourcePolicy)

	t.Run("all records", func(t *testing.T) {
		logs, total, err := repo.List(ctx, governance.DecisionLogFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, logs, 3)
	})

	t.Run("filter by user", func(t *testing.T) {
		logs, total, err := repo.List(ctx, governance.DecisionLogFilter{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, logs, 2)
	})

	t.Run("filter by allowed", func(t *testing.T) {
		denied := false
		logs, total, err := repo.List(ctx, governance.DecisionLogFilter{Allowed: &denied})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, logs, 1)
		assert.Equal(t, governance.DecisionSourceTimeRule, logs[0].Source())
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		logs, total, err := repo.List(ctx, governance.DecisionLogFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, logs, 2)
	})
}

func TestDecisionLogRepository_Statistics(t *testing.T) {
	repo := NewDecisionLogRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	appendTestDecision(t, repo, "alice", "shell_exec", true, governance.DecisionSourceAllowlistUser)
	appendTestDecision(t, repo, "alice", "shell_exec", true, governance.DecisionSourceEmergency)
	appendTestDecision(t, repo, "bob", "file_write", false, governance.DecisionSourceTimeRule)

	stats, err := repo.Statistics(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Allowed)
	assert.Equal(t, int64(1), stats.Denied)
	assert.Equal(t, int64(1), stats.BySource[governance.DecisionSourceEmergency])
	assert.Equal(t, int64(1), stats.BySource[governance.DecisionSourceTimeRule])
	assert.Equal(t, int64(2), stats.ByTool["shell_exec"])
	assert.InDelta(t, 4.0, stats.AvgMS, 0.01)
}

func TestDecisionLogRepository_StatisticsEmptyWindow(t *testing.T) {
	repo := NewDecisionLogRepository(setupTestDB(t), testLogger())

	appendTestDecision(t, repo, "alice", "shell_exec", true, governance.DecisionSourcePolicy)

	stats, err := repo.Statistics(context.Background(), time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AvgMS)
	assert.Empty(t, stats.BySource)
}
