package dto

import "time"

// ActivateEmergencyRequest represents the request to activate the emergency override
type ActivateEmergencyRequest struct {
	Reason          string `json:"reason" binding:"required"`
	ActivatedBy     string `json:"activated_by" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"` // Capped at 24h
}

// DeactivateEmergencyRequest represents the request to deactivate the override
type DeactivateEmergencyRequest struct {
	DeactivatedBy string `json:"deactivated_by" binding:"required"`
}

// ExtendEmergencyRequest represents the request to extend the active override
type ExtendEmergencyRequest struct {
	ExtensionMinutes int `json:"extension_minutes" binding:"required"`
}

// EmergencyStatusResponse represents the current emergency override state
type EmergencyStatusResponse struct {
	Active           bool       `json:"active"`
	Reason           string     `json:"reason,omitempty"`
	ActivatedBy      string     `json:"activated_by,omitempty"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
}

// EmergencyHistoryEntry represents one past or present override
type EmergencyHistoryEntry struct {
	ID            uint       `json:"id"`
	Reason        string     `json:"reason"`
	ActivatedBy   string     `json:"activated_by"`
	ActivatedAt   time.Time  `json:"activated_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Active        bool       `json:"active"`
	DeactivatedBy string     `json:"deactivated_by,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// EmergencyHistoryResponse represents the override history
type EmergencyHistoryResponse struct {
	Overrides []*EmergencyHistoryEntry `json:"overrides"`
	Total     int                      `json:"total"`
}
