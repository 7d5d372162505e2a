package governance

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

const maxUserIdentifierLength = 100

// AllowlistEntry represents a trusted identifier that bypasses policy
// evaluation. Entries are soft-deactivated, never physically deleted, so the
// audit trail keeps its context.
type AllowlistEntry struct {
	id         uint
	entryType  EntryType
	identifier string
	name       string
	reason     string
	createdBy  string
	active     bool
	expiresAt  *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewAllowlistEntry creates an active allowlist entry. The identifier is
// validated and normalized according to the entry type.
func NewAllowlistEntry(identifier string, entryType EntryType, name, reason, createdBy string, expiresAt *time.Time) (*AllowlistEntry, error) {
	if !entryType.IsValid() {
		return nil, fmt.Errorf("invalid entry type: %s", entryType)
	}

	normalized, err := NormalizeIdentifier(identifier, entryType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &AllowlistEntry{
		entryType:  entryType,
		identifier: normalized,
		name:       name,
		reason:     reason,
		createdBy:  createdBy,
		active:     true,
		expiresAt:  expiresAt,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructAllowlistEntry rebuilds an entry from persistence.
func ReconstructAllowlistEntry(
	id uint,
	identifier string,
	entryType EntryType,
	name, reason, createdBy string,
	active bool,
	expiresAt *time.Time,
	createdAt, updatedAt time.Time,
) (*AllowlistEntry, error) {
	if id == 0 {
		return nil, fmt.Errorf("allowlist entry ID cannot be zero")
	}
	if !entryType.IsValid() {
		return nil, fmt.Errorf("invalid entry type: %s", entryType)
	}
	if identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}

	return &AllowlistEntry{
		id:         id,
		entryType:  entryType,
		identifier: identifier,
		name:       name,
		reason:     reason,
		createdBy:  createdBy,
		active:     active,
		expiresAt:  expiresAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

// NormalizeIdentifier validates and canonicalizes an identifier for the
// given entry type: IPs through netip parsing, MACs uppercased with colon
// separators, user IDs trimmed and length-capped.
func NormalizeIdentifier(identifier string, entryType EntryType) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}

	switch entryType {
	case EntryTypeDeviceIP:
		addr, err := netip.ParseAddr(identifier)
		if err != nil {
			return "", fmt.Errorf("invalid IP address %q: %w", identifier, err)
		}
		return addr.String(), nil

	case EntryTypeMAC:
		mac := strings.ToUpper(identifier)
		mac = strings.NewReplacer("-", ":", ".", ":").Replace(mac)
		parts := strings.Split(mac, ":")
		if len(parts) != 6 {
			return "", fmt.Errorf("invalid MAC address: %s", identifier)
		}
		for _, part := range parts {
			if len(part) != 2 || strings.Trim(part, "0123456789ABCDEF") != "" {
				return "", fmt.Errorf("invalid MAC address: %s", identifier)
			}
		}
		return mac, nil

	case EntryTypeUser:
		if len(identifier) > maxUserIdentifierLength {
			return "", fmt.Errorf("user identifier too long (max %d characters)", maxUserIdentifierLength)
		}
		return identifier, nil
	}

	return identifier, nil
}

// ID returns the entry ID
func (e *AllowlistEntry) ID() uint { return e.id }

// EntryType returns the entry type
func (e *AllowlistEntry) EntryType() EntryType { return e.entryType }

// Identifier returns the normalized identifier
func (e *AllowlistEntry) Identifier() string { return e.identifier }

// Name returns the human-readable name
func (e *AllowlistEntry) Name() string { return e.name }

// Reason returns why the entry was allowlisted
func (e *AllowlistEntry) Reason() string { return e.reason }

// CreatedBy returns who created the entry
func (e *AllowlistEntry) CreatedBy() string { return e.createdBy }

// Active reports whether the entry is active
func (e *AllowlistEntry) Active() bool { return e.active }

// ExpiresAt returns the optional expiry time
func (e *AllowlistEntry) ExpiresAt() *time.Time { return e.expiresAt }

// CreatedAt returns when the entry was created
func (e *AllowlistEntry) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns when the entry was last updated
func (e *AllowlistEntry) UpdatedAt() time.Time { return e.updatedAt }

// SetID sets the entry ID (persistence layer use only)
func (e *AllowlistEntry) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("allowlist entry ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("allowlist entry ID cannot be zero")
	}
	e.id = id
	return nil
}

// IsExpired reports whether the entry has passed its expiry at the given instant
func (e *AllowlistEntry) IsExpired(now time.Time) bool {
	return e.expiresAt != nil && now.After(*e.expiresAt)
}

// IsEffective reports whether the entry grants a bypass at the given instant
func (e *AllowlistEntry) IsEffective(now time.Time) bool {
	return e.active && !e.IsExpired(now)
}

// Deactivate soft-removes the entry
func (e *AllowlistEntry) Deactivate() {
	e.active = false
	e.updatedAt = time.Now().UTC()
}

// UpdateDetails replaces the entry's descriptive fields without touching
// its active state.
func (e *AllowlistEntry) UpdateDetails(name, reason string, expiresAt *time.Time) {
	e.name = name
	e.reason = reason
	e.expiresAt = expiresAt
	e.updatedAt = time.Now().UTC()
}

// Reactivate re-enables a previously deactivated entry with fresh details.
// Empty name or reason keeps the existing value.
func (e *AllowlistEntry) Reactivate(name, reason string, expiresAt *time.Time) {
	e.active = true
	if name != "" {
		e.name = name
	}
	if reason != "" {
		e.reason = reason
	}
	e.expiresAt = expiresAt
	e.updatedAt = time.Now().UTC()
}
