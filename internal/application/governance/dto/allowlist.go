package dto

import "time"

// AddAllowlistEntryRequest represents the request to add an allowlist entry
type AddAllowlistEntryRequest struct {
	Identifier string  `json:"identifier" binding:"required"` // IP, MAC or user ID depending on type
	EntryType  string  `json:"entry_type" binding:"required"` // "device_ip" | "device_mac" | "user"
	Name       string  `json:"name"`                          // Human-readable label
	Reason     string  `json:"reason"`                        // Why the entry is trusted
	ExpiresAt  *string `json:"expires_at,omitempty"`          // RFC3339; omit for permanent
}

// UpdateAllowlistEntryRequest represents the request to update an entry
type UpdateAllowlistEntryRequest struct {
	Name      *string `json:"name,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	ExpiresAt *string `json:"expires_at,omitempty"` // RFC3339; empty string clears the expiry
}

// ListAllowlistRequest represents the request to list entries
type ListAllowlistRequest struct {
	EntryType       *string `form:"entry_type"`       // Filter by entry type
	IncludeInactive bool    `form:"include_inactive"` // Include deactivated entries
}

// AllowlistEntryResponse represents a single allowlist entry
type AllowlistEntryResponse struct {
	ID         uint       `json:"id"`
	Identifier string     `json:"identifier"`
	EntryType  string     `json:"entry_type"`
	Name       string     `json:"name,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	CreatedBy  string     `json:"created_by"`
	Active     bool       `json:"active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ListAllowlistResponse represents the response for listing entries
type ListAllowlistResponse struct {
	Entries []*AllowlistEntryResponse `json:"entries"`
	Total   int                       `json:"total"`
}
