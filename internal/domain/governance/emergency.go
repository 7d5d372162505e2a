package governance

import (
	"fmt"
	"time"
)

// MaxEmergencyDuration caps how long a single emergency override may run,
// including extensions.
const MaxEmergencyDuration = 24 * time.Hour

// EmergencyOverride is a global switch that approves every request while
// active. At most one override is active at a time.
type EmergencyOverride struct {
	id            uint
	reason        string
	activatedBy   string
	activatedAt   time.Time
	expiresAt     time.Time
	active        bool
	deactivatedBy string
	deactivatedAt *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewEmergencyOverride activates a new override for the given duration.
func NewEmergencyOverride(reason, activatedBy string, duration time.Duration) (*EmergencyOverride, error) {
	if reason == "" {
		return nil, fmt.Errorf("activation reason is required")
	}
	if activatedBy == "" {
		return nil, fmt.Errorf("activator identity is required")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if duration > MaxEmergencyDuration {
		return nil, ErrExceedsMaxDuration
	}

	now := time.Now().UTC()
	return &EmergencyOverride{
		reason:      reason,
		activatedBy: activatedBy,
		activatedAt: now,
		expiresAt:   now.Add(duration),
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructEmergencyOverride rebuilds an override from persistence.
func ReconstructEmergencyOverride(
	id uint,
	reason, activatedBy string,
	activatedAt, expiresAt time.Time,
	active bool,
	deactivatedBy string,
	deactivatedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*EmergencyOverride, error) {
	if id == 0 {
		return nil, fmt.Errorf("emergency override ID cannot be zero")
	}

	return &EmergencyOverride{
		id:            id,
		reason:        reason,
		activatedBy:   activatedBy,
		activatedAt:   activatedAt,
		expiresAt:     expiresAt,
		active:        active,
		deactivatedBy: deactivatedBy,
		deactivatedAt: deactivatedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

// ID returns the override ID
func (o *EmergencyOverride) ID() uint { return o.id }

// Reason returns why the override was activated
func (o *EmergencyOverride) Reason() string { return o.reason }

// ActivatedBy returns who activated the override
func (o *EmergencyOverride) ActivatedBy() string { return o.activatedBy }

// ActivatedAt returns when the override was activated
func (o *EmergencyOverride) ActivatedAt() time.Time { return o.activatedAt }

// ExpiresAt returns when the override lapses
func (o *EmergencyOverride) ExpiresAt() time.Time { return o.expiresAt }

// Active reports the stored active flag; callers wanting the effective
// state should use IsEffective
func (o *EmergencyOverride) Active() bool { return o.active }

// DeactivatedBy returns who deactivated the override, if anyone
func (o *EmergencyOverride) DeactivatedBy() string { return o.deactivatedBy }

// DeactivatedAt returns when the override was deactivated, if it was
func (o *EmergencyOverride) DeactivatedAt() *time.Time { return o.deactivatedAt }

// CreatedAt returns when the record was created
func (o *EmergencyOverride) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns when the record was last updated
func (o *EmergencyOverride) UpdatedAt() time.Time { return o.updatedAt }

// SetID sets the override ID (persistence layer use only)
func (o *EmergencyOverride) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("emergency override ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("emergency override ID cannot be zero")
	}
	o.id = id
	return nil
}

// IsEffective reports whether the override approves requests at the given
// instant. Expiry is evaluated lazily so an expired row behaves as inactive
// even before the sweeper marks it.
func (o *EmergencyOverride) IsEffective(now time.Time) bool {
	return o.active && now.Before(o.expiresAt)
}

// RemainingAt returns how long the override has left at the given instant,
// zero if it is no longer effective.
func (o *EmergencyOverride) RemainingAt(now time.Time) time.Duration {
	if !o.IsEffective(now) {
		return 0
	}
	return o.expiresAt.Sub(now)
}

// Deactivate turns the override off before its expiry.
func (o *EmergencyOverride) Deactivate(deactivatedBy string) error {
	if !o.active {
		return ErrNoActiveOverride
	}
	now := time.Now().UTC()
	o.active = false
	o.deactivatedBy = deactivatedBy
	o.deactivatedAt = &now
	o.updatedAt = now
	return nil
}

// Extend pushes the expiry further out. The total lifetime measured from
// activation stays within MaxEmergencyDuration.
func (o *EmergencyOverride) Extend(extra time.Duration, now time.Time) error {
	if !o.IsEffective(now) {
		return ErrNoActiveOverride
	}
	if extra <= 0 {
		return fmt.Errorf("extension must be positive")
	}
	newExpiry := o.expiresAt.Add(extra)
	if newExpiry.Sub(o.activatedAt) > MaxEmergencyDuration {
		return ErrExceedsMaxDuration
	}
	o.expiresAt = newExpiry
	o.updatedAt = time.Now().UTC()
	return nil
}

// MarkExpired flips the active flag on a row whose expiry has passed.
func (o *EmergencyOverride) MarkExpired(now time.Time) bool {
	if !o.active || now.Before(o.expiresAt) {
		return false
	}
	o.active = false
	o.updatedAt = now
	return true
}
