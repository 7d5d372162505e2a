package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, start, end string, days []time.Weekday, tz string) *TimeRule {
	t.Helper()
	rule, err := NewTimeRule("after-hours", "", RuleActionBlock, start, end, days, tz, 10, "admin")
	require.NoError(t, err)
	return rule
}

func TestTimeRule_MatchesSimpleWindow(t *testing.T) {
	rule := mustRule(t, "09:00", "17:00", nil, "UTC")

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before start", time.Date(2026, 3, 2, 8, 59, 0, 0, time.UTC), false},
		{"at start", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), true},
		{"inside", time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC), true},
		{"at end is outside", time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), false},
		{"after end", time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Matches(tt.at))
		})
	}
}

func TestTimeRule_MatchesWrappingWindow(t *testing.T) {
	rule := mustRule(t, "22:00", "06:00", nil, "UTC")

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"late evening", time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC), true},
		{"at start", time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC), true},
		{"after midnight", time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC), true},
		{"at end is outside", time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC), false},
		{"midday", time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Matches(tt.at))
		})
	}
}

func TestTimeRule_WrappingWindowUsesInstantWeekday(t *testing.T) {
	// Tuesday-only wrapping window: both the Tuesday evening segment and
	// the Tuesday early-morning segment match; Wednesday morning does not.
	rule := mustRule(t, "21:00", "07:00", []time.Weekday{time.Tuesday}, "UTC")

	tueEvening := time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC) // Tuesday
	tueMorning := time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC)  // Tuesday
	wedMorning := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)  // Wednesday
	tueMidday := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)  // Tuesday

	assert.True(t, rule.Matches(tueEvening))
	assert.True(t, rule.Matches(tueMorning))
	assert.False(t, rule.Matches(wedMorning))
	assert.False(t, rule.Matches(tueMidday))
}

func TestTimeRule_EqualStartEndIsEmptyWindow(t *testing.T) {
	rule := mustRule(t, "09:00", "09:00", nil, "UTC")

	assert.False(t, rule.Matches(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	assert.False(t, rule.Matches(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)))
}

func TestTimeRule_MatchesInRuleTimezone(t *testing.T) {
	rule := mustRule(t, "09:00", "17:00", nil, "America/New_York")

	// 13:00 UTC in March (EST offset -5 until DST) is 08:00 New York on
	// 2026-03-02, outside the window; 15:00 UTC is 10:00, inside.
	assert.False(t, rule.Matches(time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)))
	assert.True(t, rule.Matches(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)))
}

func TestTimeRule_DisabledNeverMatches(t *testing.T) {
	rule := mustRule(t, "00:00", "23:59", nil, "UTC")
	rule.Disable()

	assert.False(t, rule.Matches(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)))
}

func TestNewTimeRule_Validation(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		tz    string
	}{
		{"bad start", "9am", "17:00", "UTC"},
		{"bad end", "09:00", "25:00", "UTC"},
		{"bad timezone", "09:00", "17:00", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTimeRule("r", "", RuleActionBlock, tt.start, tt.end, nil, tt.tz, 0, "admin")
			assert.Error(t, err)
		})
	}
}

func TestTimeRule_UpdateWindow(t *testing.T) {
	rule := mustRule(t, "09:00", "17:00", nil, "UTC")

	require.NoError(t, rule.UpdateWindow("10:00", "11:00", []time.Weekday{time.Monday}))
	assert.Equal(t, "10:00", rule.StartTime())
	assert.Equal(t, "11:00", rule.EndTime())
	assert.True(t, rule.Matches(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC))) // Monday
	assert.False(t, rule.Matches(time.Date(2026, 3, 3, 10, 30, 0, 0, time.UTC)))
}
