package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/domain/governance"
)

func createTestRule(t *testing.T, repo governance.TimeRuleRepository, name string, action governance.RuleAction) *governance.TimeRule {
	t.Helper()
	rule, err := governance.NewTimeRule(
		name, "after-hours window", action,
		"22:00", "06:00",
		[]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		"UTC", 10, "admin",
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), rule))
	return rule
}

func TestTimeRuleRepository_CreateAndFind(t *testing.T) {
	repo := NewTimeRuleRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	created := createTestRule(t, repo, "night-block", governance.RuleActionBlock)
	assert.NotZero(t, created.ID())

	found, err := repo.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "night-block", found.Name())
	assert.Equal(t, "22:00", found.StartTime())
	assert.Equal(t, "06:00", found.EndTime())
	assert.Len(t, found.DaysOfWeek(), 5)

	byName, err := repo.FindByName(ctx, "night-block")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), byName.ID())

	_, err = repo.FindByName(ctx, "missing")
	assert.ErrorIs(t, err, governance.ErrNotFound)
}

func TestTimeRuleRepository_UpdateAndDisable(t *testing.T) {
	repo := NewTimeRuleRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	rule := createTestRule(t, repo, "night-block", governance.RuleActionBlock)
	rule.Disable()
	require.NoError(t, repo.Update(ctx, rule))

	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Enabled())
}

func TestTimeRuleRepository_DisabledRuleRowSurvives(t *testing.T) {
	repo := NewTimeRuleRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	rule := createTestRule(t, repo, "night-block", governance.RuleActionAlert)
	rule.Disable()
	require.NoError(t, repo.Update(ctx, rule))

	// Gone from the enabled set but still readable by ID.
	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	got, err := repo.FindByID(ctx, rule.ID())
	require.NoError(t, err)
	assert.False(t, got.Enabled())
}

func TestTimeRuleRepository_ListOrdersByPriority(t *testing.T) {
	repo := NewTimeRuleRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	second, err := governance.NewTimeRule("second", "", governance.RuleActionLog,
		"09:00", "17:00", []time.Weekday{time.Monday}, "UTC", 100, "admin")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	first, err := governance.NewTimeRule("first", "", governance.RuleActionBlock,
		"09:00", "17:00", []time.Weekday{time.Monday}, "UTC", 1, "admin")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	rules, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "first", rules[0].Name())
	assert.Equal(t, "second", rules[1].Name())
}
