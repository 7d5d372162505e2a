package governance

import (
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/shared/id"
)

// DefaultOverrideTTL is how long a pending override request stays
// redeemable before it expires. MaxOverrideTTL bounds caller-supplied TTLs.
const (
	DefaultOverrideTTL = 5 * time.Minute
	MaxOverrideTTL     = time.Hour
)

// OverrideRequest is a PIN-gated, single-use approval for one specific
// tool call. Redeeming it consumes it.
type OverrideRequest struct {
	id          uint
	requestID   string
	userID      string
	toolName    string
	reason      string
	pinHash     PINHash
	status      OverrideStatus
	expiresAt   time.Time
	usedAt      *time.Time
	cancelledBy string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewOverrideRequest creates a pending override protected by the given PIN.
// The requestID is the caller's key for the blocked call; when empty a
// fresh identifier is generated. A zero ttl falls back to DefaultOverrideTTL.
func NewOverrideRequest(requestID, userID, toolName, reason, pin string, ttl time.Duration) (*OverrideRequest, error) {
	if requestID == "" {
		requestID = id.NewOverrideRequestID()
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if toolName == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if reason == "" {
		return nil, fmt.Errorf("override reason is required")
	}

	pinHash, err := NewPINHash(pin)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultOverrideTTL
	}
	if ttl > MaxOverrideTTL {
		return nil, fmt.Errorf("override TTL cannot exceed %s", MaxOverrideTTL)
	}

	now := time.Now().UTC()
	return &OverrideRequest{
		requestID: requestID,
		userID:    userID,
		toolName:  toolName,
		reason:    reason,
		pinHash:   pinHash,
		status:    OverrideStatusPending,
		expiresAt: now.Add(ttl),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructOverrideRequest rebuilds an override request from persistence.
func ReconstructOverrideRequest(
	id uint,
	requestID, userID, toolName, reason string,
	pinHash PINHash,
	status OverrideStatus,
	expiresAt time.Time,
	usedAt *time.Time,
	cancelledBy string,
	createdAt, updatedAt time.Time,
) (*OverrideRequest, error) {
	if id == 0 {
		return nil, fmt.Errorf("override request ID cannot be zero")
	}
	if requestID == "" {
		return nil, fmt.Errorf("request ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid override status: %s", status)
	}

	return &OverrideRequest{
		id:          id,
		requestID:   requestID,
		userID:      userID,
		toolName:    toolName,
		reason:      reason,
		pinHash:     pinHash,
		status:      status,
		expiresAt:   expiresAt,
		usedAt:      usedAt,
		cancelledBy: cancelledBy,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

// ID returns the database ID
func (o *OverrideRequest) ID() uint { return o.id }

// RequestID returns the public request identifier
func (o *OverrideRequest) RequestID() string { return o.requestID }

// UserID returns who requested the override
func (o *OverrideRequest) UserID() string { return o.userID }

// ToolName returns the tool the override applies to
func (o *OverrideRequest) ToolName() string { return o.toolName }

// Reason returns the stated justification
func (o *OverrideRequest) Reason() string { return o.reason }

// PINHash returns the salted PIN digest
func (o *OverrideRequest) PINHash() PINHash { return o.pinHash }

// Status returns the current lifecycle status
func (o *OverrideRequest) Status() OverrideStatus { return o.status }

// ExpiresAt returns when a pending request lapses
func (o *OverrideRequest) ExpiresAt() time.Time { return o.expiresAt }

// UsedAt returns when the override was redeemed, if it was
func (o *OverrideRequest) UsedAt() *time.Time { return o.usedAt }

// CancelledBy returns who cancelled the request, if anyone
func (o *OverrideRequest) CancelledBy() string { return o.cancelledBy }

// CreatedAt returns when the request was created
func (o *OverrideRequest) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns when the request was last updated
func (o *OverrideRequest) UpdatedAt() time.Time { return o.updatedAt }

// SetID sets the database ID (persistence layer use only)
func (o *OverrideRequest) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("override request ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("override request ID cannot be zero")
	}
	o.id = id
	return nil
}

// IsRedeemable reports whether the request can still be consumed at the
// given instant.
func (o *OverrideRequest) IsRedeemable(now time.Time) bool {
	return o.status == OverrideStatusPending && now.Before(o.expiresAt)
}

// VerifyPIN checks the candidate PIN against the stored hash.
func (o *OverrideRequest) VerifyPIN(pin string) bool {
	return o.pinHash.Verify(pin)
}

// MarkUsed consumes the override. Only a pending, unexpired request can be
// redeemed; anything else fails.
func (o *OverrideRequest) MarkUsed(now time.Time) error {
	if !o.IsRedeemable(now) {
		return fmt.Errorf("override request %s is not redeemable (status %s)", o.requestID, o.status)
	}
	used := now.UTC()
	o.status = OverrideStatusUsed
	o.usedAt = &used
	o.updatedAt = used
	return nil
}

// MarkExpired flips a pending request past its expiry to expired.
func (o *OverrideRequest) MarkExpired(now time.Time) bool {
	if o.status != OverrideStatusPending || now.Before(o.expiresAt) {
		return false
	}
	o.status = OverrideStatusExpired
	o.updatedAt = now.UTC()
	return true
}

// Cancel withdraws a pending request before use.
func (o *OverrideRequest) Cancel(cancelledBy string) error {
	if o.status != OverrideStatusPending {
		return fmt.Errorf("override request %s is not pending (status %s)", o.requestID, o.status)
	}
	o.status = OverrideStatusCancelled
	o.cancelledBy = cancelledBy
	o.updatedAt = time.Now().UTC()
	return nil
}
