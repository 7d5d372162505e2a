package dto

import "time"

// CreateConsentRequest represents the request to open a consent request
type CreateConsentRequest struct {
	ConsentType       string `json:"consent_type" binding:"required"`
	RequestedBy       string `json:"requested_by" binding:"required"`
	Description       string `json:"description"`
	RequiredApprovals int    `json:"required_approvals"` // Default 1
	TTLHours          int    `json:"ttl_hours"`          // Default 24
}

// DecideConsentRequest represents one approver's decision
type DecideConsentRequest struct {
	DecidedBy string `json:"decided_by" binding:"required"`
	Approve   bool   `json:"approve"`
	Reason    string `json:"reason"` // Required context for rejections
}

// CancelConsentRequest represents the requester withdrawing the request
type CancelConsentRequest struct {
	CancelledBy string `json:"cancelled_by" binding:"required"`
}

// ListConsentsRequest represents the request to list consent requests
type ListConsentsRequest struct {
	ConsentType string  `form:"consent_type"`
	Status      *string `form:"status"`
	Limit       int     `form:"limit"`
}

// ConsentResponse represents a single consent request
type ConsentResponse struct {
	RequestID         string     `json:"request_id"`
	ConsentType       string     `json:"consent_type"`
	RequestedBy       string     `json:"requested_by"`
	Description       string     `json:"description,omitempty"`
	RequiredApprovals int        `json:"required_approvals"`
	Approvers         []string   `json:"approvers"`
	RejectedBy        string     `json:"rejected_by,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	Status            string     `json:"status"`
	ExpiresAt         time.Time  `json:"expires_at"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ConsentStateResponse reports whether a consent type is currently approved
type ConsentStateResponse struct {
	ConsentType string     `json:"consent_type"`
	Approved    bool       `json:"approved"`
	RequestID   string     `json:"request_id,omitempty"` // The decided request consulted
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// ListConsentsResponse represents the response for listing consent requests
type ListConsentsResponse struct {
	Consents []*ConsentResponse `json:"consents"`
	Total    int                `json:"total"`
}

// ConsentStatsResponse counts consent requests by status
type ConsentStatsResponse struct {
	ByStatus map[string]int64 `json:"by_status"`
	Total    int64            `json:"total"`
}
