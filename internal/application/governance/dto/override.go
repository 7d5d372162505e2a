package dto

import "time"

// CreateOverrideRequest represents the request to open a PIN-gated override
type CreateOverrideRequest struct {
	RequestID  string `json:"request_id"` // Caller's key for the blocked call; generated when empty
	UserID     string `json:"user_id" binding:"required"`
	ToolName   string `json:"tool_name" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
	PIN        string `json:"pin" binding:"required"` // Never stored in clear
	TTLSeconds int    `json:"ttl_seconds"`            // Default 300
}

// RedeemOverrideRequest represents the request to consume an override
type RedeemOverrideRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	PIN       string `json:"pin" binding:"required"`
}

// CancelOverrideRequest represents the request to withdraw a pending override
type CancelOverrideRequest struct {
	CancelledBy string `json:"cancelled_by" binding:"required"`
}

// ListOverridesRequest represents the request to list override requests
type ListOverridesRequest struct {
	UserID string  `form:"user_id"`
	Status *string `form:"status"`
	Limit  int     `form:"limit"`
}

// OverrideResponse represents a single override request
type OverrideResponse struct {
	RequestID   string     `json:"request_id"`
	UserID      string     `json:"user_id"`
	ToolName    string     `json:"tool_name"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CancelledBy string     `json:"cancelled_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RedeemOverrideResponse represents the outcome of a redemption attempt
type RedeemOverrideResponse struct {
	Granted   bool   `json:"granted"`
	RequestID string `json:"request_id"`
	Reason    string `json:"reason,omitempty"`
}

// ListOverridesResponse represents the response for listing overrides
type ListOverridesResponse struct {
	Overrides []*OverrideResponse `json:"overrides"`
	Total     int                 `json:"total"`
}

// OverrideStatsResponse counts override requests by status
type OverrideStatsResponse struct {
	ByStatus map[string]int64 `json:"by_status"`
	Total    int64            `json:"total"`
}
