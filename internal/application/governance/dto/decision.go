package dto

import "time"

// EvaluateRequest represents one tool call awaiting a decision
type EvaluateRequest struct {
	UserID    string            `json:"user_id" binding:"required"`
	ToolName  string            `json:"tool_name" binding:"required"`
	DeviceIP  string            `json:"device_ip"`
	DeviceMAC string            `json:"device_mac"`
	// Optional single-use override credentials, redeemed during evaluation
	OverrideRequestID string            `json:"override_request_id,omitempty"`
	OverridePIN       string            `json:"override_pin,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// DecisionResponse represents the enforcement verdict
type DecisionResponse struct {
	Allowed     bool      `json:"allowed"`
	Source      string    `json:"decision_source"`
	Reason      string    `json:"reason"`
	RuleName    string    `json:"rule_name,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

// ListDecisionsRequest represents the request to query the audit trail
type ListDecisionsRequest struct {
	UserID   string  `form:"user_id"`
	ToolName string  `form:"tool_name"`
	Source   string  `form:"source"`
	Allowed  *bool   `form:"allowed"`
	Since    *string `form:"since"` // RFC3339
	Until    *string `form:"until"` // RFC3339
	Limit    int     `form:"limit"`
	Offset   int     `form:"offset"`
}

// DecisionLogResponse represents one audit record
type DecisionLogResponse struct {
	ID          uint      `json:"id"`
	UserID      string    `json:"user_id"`
	ToolName    string    `json:"tool_name"`
	DeviceIP    string    `json:"device_ip,omitempty"`
	DeviceMAC   string    `json:"device_mac,omitempty"`
	Allowed     bool      `json:"allowed"`
	Source      string    `json:"decision_source"`
	Reason      string    `json:"reason"`
	RuleName    string    `json:"rule_name,omitempty"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// ListDecisionsResponse represents the audit query result
type ListDecisionsResponse struct {
	Decisions []*DecisionLogResponse `json:"decisions"`
	Total     int64                  `json:"total"`
}

// DecisionStatsResponse aggregates audit records over a window
type DecisionStatsResponse struct {
	Total    int64            `json:"total"`
	Allowed  int64            `json:"allowed"`
	Denied   int64            `json:"denied"`
	BySource map[string]int64 `json:"by_source"`
	ByTool   map[string]int64 `json:"by_tool"`
	AvgMS    float64          `json:"avg_ms"`
	Since    time.Time        `json:"since"`
}
