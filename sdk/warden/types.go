// Package warden provides a Go SDK for interacting with the Warden
// enforcement API.
package warden

import "time"

// EvaluateRequest represents one tool call submitted for a decision.
type EvaluateRequest struct {
	UserID    string `json:"user_id"`
	ToolName  string `json:"tool_name"`
	DeviceIP  string `json:"device_ip,omitempty"`
	DeviceMAC string `json:"device_mac,omitempty"`
	// Optional single-use override credentials, redeemed during evaluation.
	OverrideRequestID string            `json:"override_request_id,omitempty"`
	OverridePIN       string            `json:"override_pin,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Decision represents the enforcement verdict for a tool call.
type Decision struct {
	Allowed     bool      `json:"allowed"`
	Source      string    `json:"decision_source"`
	Reason      string    `json:"reason"`
	RuleName    string    `json:"rule_name,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

// CreateOverrideRequest creates a PIN-gated single-use override. RequestID
// keys the override to the blocked call; the server generates one when empty.
type CreateOverrideRequest struct {
	RequestID  string `json:"request_id,omitempty"`
	UserID     string `json:"user_id"`
	ToolName   string `json:"tool_name"`
	Reason     string `json:"reason"`
	PIN        string `json:"pin"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// Override represents an override request as returned by the API. The PIN
// is never included.
type Override struct {
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

// RedeemResult represents the outcome of redeeming an override.
type RedeemResult struct {
	Granted   bool   `json:"granted"`
	RequestID string `json:"request_id"`
	Reason    string `json:"reason,omitempty"`
}

// ActivateEmergencyRequest activates the emergency override.
type ActivateEmergencyRequest struct {
	Reason          string `json:"reason"`
	ActivatedBy     string `json:"activated_by"`
	DurationMinutes int    `json:"duration_minutes"`
}

// EmergencyStatus represents the current emergency override state.
type EmergencyStatus struct {
	Active           bool       `json:"active"`
	Reason           string     `json:"reason,omitempty"`
	ActivatedBy      string     `json:"activated_by,omitempty"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
}

// apiResponse represents the standard API response envelope.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// apiError represents error information in an API response.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
