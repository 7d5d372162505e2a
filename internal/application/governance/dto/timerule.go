package dto

import "time"

// CreateTimeRuleRequest represents the request to create a time rule
type CreateTimeRuleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Action      string `json:"action" binding:"required"` // "block" | "alert" | "log"
	StartTime   string `json:"start_time" binding:"required"` // "HH:MM" in the rule timezone
	EndTime     string `json:"end_time" binding:"required"`   // "HH:MM", exclusive
	DaysOfWeek  []int  `json:"days_of_week"`                  // 0=Sunday..6=Saturday; empty means all days
	Timezone    string `json:"timezone"`                      // IANA name; default UTC
	Priority    int    `json:"priority"`                      // Lower wins conflicts
}

// UpdateTimeRuleRequest represents the request to update a time rule
type UpdateTimeRuleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Action      *string `json:"action,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	DaysOfWeek  []int   `json:"days_of_week,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// TimeRuleResponse represents a single time rule
type TimeRuleResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Action      string    `json:"action"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	DaysOfWeek  []int     `json:"days_of_week"`
	Timezone    string    `json:"timezone"`
	Priority    int       `json:"priority"`
	Enabled     bool      `json:"enabled"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListTimeRulesResponse represents the response for listing rules
type ListTimeRulesResponse struct {
	Rules []*TimeRuleResponse `json:"rules"`
	Total int                 `json:"total"`
}

// CheckTimeRulesResponse reports which rule, if any, governs an instant
type CheckTimeRulesResponse struct {
	Matched  bool              `json:"matched"`
	Rule     *TimeRuleResponse `json:"rule,omitempty"`
	Action   string            `json:"action,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}
