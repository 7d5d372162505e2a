package governance

import (
	"fmt"
	"time"
)

// TimeRule restricts or flags access during a recurring daily window.
// Windows are half-open [start, end) minutes-of-day in the rule's own
// timezone; a window whose end is before its start wraps past midnight,
// and a window whose end equals its start is empty.
type TimeRule struct {
	id          uint
	name        string
	description string
	action      RuleAction
	startMinute int
	endMinute   int
	daysOfWeek  []time.Weekday
	timezone    string
	location    *time.Location
	priority    int
	enabled     bool
	createdBy   string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewTimeRule creates an enabled time rule. Start and end are "HH:MM"
// strings; daysOfWeek is the set of weekdays the window applies to, and an
// empty set means every day.
func NewTimeRule(name, description string, action RuleAction, start, end string, daysOfWeek []time.Weekday, timezone string, priority int, createdBy string) (*TimeRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid rule action: %s", action)
	}

	startMin, err := parseMinuteOfDay(start)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	endMin, err := parseMinuteOfDay(end)
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}

	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	for _, d := range daysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("invalid weekday: %d", d)
		}
	}

	now := time.Now().UTC()
	return &TimeRule{
		name:        name,
		description: description,
		action:      action,
		startMinute: startMin,
		endMinute:   endMin,
		daysOfWeek:  daysOfWeek,
		timezone:    timezone,
		location:    loc,
		priority:    priority,
		enabled:     true,
		createdBy:   createdBy,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructTimeRule rebuilds a rule from persistence.
func ReconstructTimeRule(
	id uint,
	name, description string,
	action RuleAction,
	start, end string,
	daysOfWeek []time.Weekday,
	timezone string,
	priority int,
	enabled bool,
	createdBy string,
	createdAt, updatedAt time.Time,
) (*TimeRule, error) {
	if id == 0 {
		return nil, fmt.Errorf("time rule ID cannot be zero")
	}

	rule, err := NewTimeRule(name, description, action, start, end, daysOfWeek, timezone, priority, createdBy)
	if err != nil {
		return nil, err
	}
	rule.id = id
	rule.enabled = enabled
	rule.createdAt = createdAt
	rule.updatedAt = updatedAt
	return rule, nil
}

func parseMinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatMinuteOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ID returns the rule ID
func (r *TimeRule) ID() uint { return r.id }

// Name returns the rule name
func (r *TimeRule) Name() string { return r.name }

// Description returns the rule description
func (r *TimeRule) Description() string { return r.description }

// Action returns the action taken when the rule matches
func (r *TimeRule) Action() RuleAction { return r.action }

// StartTime returns the window start as "HH:MM"
func (r *TimeRule) StartTime() string { return formatMinuteOfDay(r.startMinute) }

// EndTime returns the window end as "HH:MM"
func (r *TimeRule) EndTime() string { return formatMinuteOfDay(r.endMinute) }

// DaysOfWeek returns the weekdays the rule applies to (empty means all)
func (r *TimeRule) DaysOfWeek() []time.Weekday { return r.daysOfWeek }

// Timezone returns the IANA timezone name the window is evaluated in
func (r *TimeRule) Timezone() string { return r.timezone }

// Priority returns the rule priority; lower values win conflicts
func (r *TimeRule) Priority() int { return r.priority }

// Enabled reports whether the rule is evaluated
func (r *TimeRule) Enabled() bool { return r.enabled }

// CreatedBy returns who created the rule
func (r *TimeRule) CreatedBy() string { return r.createdBy }

// CreatedAt returns when the rule was created
func (r *TimeRule) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the rule was last updated
func (r *TimeRule) UpdatedAt() time.Time { return r.updatedAt }

// SetID sets the rule ID (persistence layer use only)
func (r *TimeRule) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("time rule ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("time rule ID cannot be zero")
	}
	r.id = id
	return nil
}

// Enable turns the rule on
func (r *TimeRule) Enable() {
	r.enabled = true
	r.updatedAt = time.Now().UTC()
}

// Disable turns the rule off without deleting it
func (r *TimeRule) Disable() {
	r.enabled = false
	r.updatedAt = time.Now().UTC()
}

// UpdateWindow replaces the rule's time window and weekday set.
func (r *TimeRule) UpdateWindow(start, end string, daysOfWeek []time.Weekday) error {
	startMin, err := parseMinuteOfDay(start)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	endMin, err := parseMinuteOfDay(end)
	if err != nil {
		return fmt.Errorf("invalid end time: %w", err)
	}
	for _, d := range daysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday: %d", d)
		}
	}
	r.startMinute = startMin
	r.endMinute = endMin
	r.daysOfWeek = daysOfWeek
	r.updatedAt = time.Now().UTC()
	return nil
}

// UpdateDetails replaces name, description, action and priority. Empty name
// keeps the existing one.
func (r *TimeRule) UpdateDetails(name, description string, action RuleAction, priority int) error {
	if !action.IsValid() {
		return fmt.Errorf("invalid rule action: %s", action)
	}
	if name != "" {
		r.name = name
	}
	r.description = description
	r.action = action
	r.priority = priority
	r.updatedAt = time.Now().UTC()
	return nil
}

// Matches reports whether the instant falls inside the rule's window. The
// instant is converted to the rule's timezone before comparing, and the
// weekday filter always applies to the instant's own weekday.
func (r *TimeRule) Matches(at time.Time) bool {
	if !r.enabled {
		return false
	}

	local := at.In(r.location)
	minute := local.Hour()*60 + local.Minute()

	if !r.matchesDay(local.Weekday()) {
		return false
	}

	if r.startMinute < r.endMinute {
		return minute >= r.startMinute && minute < r.endMinute
	}
	if r.startMinute == r.endMinute {
		// Degenerate half-open window [s, s): matches nothing.
		return false
	}

	// Wrapping window: matches the evening segment and the morning segment
	// of any configured weekday.
	return minute >= r.startMinute || minute < r.endMinute
}

func (r *TimeRule) matchesDay(day time.Weekday) bool {
	if len(r.daysOfWeek) == 0 {
		return true
	}
	for _, d := range r.daysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}
