package governance

import (
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/shared/id"
)

// DefaultConsentTTL is how long a consent request stays open for decisions.
const DefaultConsentTTL = 24 * time.Hour

// ConsentRequest collects approvals from distinct approvers for a sensitive
// action. It flips to approved once the approval count reaches the required
// threshold; a single rejection is terminal.
type ConsentRequest struct {
	id                uint
	requestID         string
	consentType       string
	requestedBy       string
	description       string
	requiredApprovals int
	approvers         []string
	rejectedBy        string
	rejectionReason   string
	status            ConsentStatus
	expiresAt         time.Time
	decidedAt         *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewConsentRequest opens a pending consent request. A zero ttl falls back
// to DefaultConsentTTL; requiredApprovals below one is raised to one.
func NewConsentRequest(consentType, requestedBy, description string, requiredApprovals int, ttl time.Duration) (*ConsentRequest, error) {
	if consentType == "" {
		return nil, fmt.Errorf("consent type is required")
	}
	if requestedBy == "" {
		return nil, fmt.Errorf("requester identity is required")
	}
	if requiredApprovals < 1 {
		requiredApprovals = 1
	}
	if ttl <= 0 {
		ttl = DefaultConsentTTL
	}

	now := time.Now().UTC()
	return &ConsentRequest{
		requestID:         id.NewConsentRequestID(),
		consentType:       consentType,
		requestedBy:       requestedBy,
		description:       description,
		requiredApprovals: requiredApprovals,
		status:            ConsentStatusPending,
		expiresAt:         now.Add(ttl),
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructConsentRequest rebuilds a consent request from persistence.
func ReconstructConsentRequest(
	id uint,
	requestID, consentType, requestedBy, description string,
	requiredApprovals int,
	approvers []string,
	rejectedBy, rejectionReason string,
	status ConsentStatus,
	expiresAt time.Time,
	decidedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*ConsentRequest, error) {
	if id == 0 {
		return nil, fmt.Errorf("consent request ID cannot be zero")
	}
	if requestID == "" {
		return nil, fmt.Errorf("request ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid consent status: %s", status)
	}

	return &ConsentRequest{
		id:                id,
		requestID:         requestID,
		consentType:       consentType,
		requestedBy:       requestedBy,
		description:       description,
		requiredApprovals: requiredApprovals,
		approvers:         approvers,
		rejectedBy:        rejectedBy,
		rejectionReason:   rejectionReason,
		status:            status,
		expiresAt:         expiresAt,
		decidedAt:         decidedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

// ID returns the database ID
func (c *ConsentRequest) ID() uint { return c.id }

// RequestID returns the public request identifier
func (c *ConsentRequest) RequestID() string { return c.requestID }

// ConsentType returns what kind of action consent is sought for
func (c *ConsentRequest) ConsentType() string { return c.consentType }

// RequestedBy returns who opened the request
func (c *ConsentRequest) RequestedBy() string { return c.requestedBy }

// Description returns the free-form request description
func (c *ConsentRequest) Description() string { return c.description }

// RequiredApprovals returns the approval threshold
func (c *ConsentRequest) RequiredApprovals() int { return c.requiredApprovals }

// Approvers returns the distinct identities that have approved so far
func (c *ConsentRequest) Approvers() []string { return c.approvers }

// RejectedBy returns who rejected the request, if anyone
func (c *ConsentRequest) RejectedBy() string { return c.rejectedBy }

// RejectionReason returns the stated reason for rejection
func (c *ConsentRequest) RejectionReason() string { return c.rejectionReason }

// Status returns the current lifecycle status
func (c *ConsentRequest) Status() ConsentStatus { return c.status }

// ExpiresAt returns when an undecided request lapses
func (c *ConsentRequest) ExpiresAt() time.Time { return c.expiresAt }

// DecidedAt returns when the request reached a terminal state, if it has
func (c *ConsentRequest) DecidedAt() *time.Time { return c.decidedAt }

// CreatedAt returns when the request was created
func (c *ConsentRequest) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the request was last updated
func (c *ConsentRequest) UpdatedAt() time.Time { return c.updatedAt }

// SetID sets the database ID (persistence layer use only)
func (c *ConsentRequest) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("consent request ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("consent request ID cannot be zero")
	}
	c.id = id
	return nil
}

// IsOpen reports whether the request can still be decided at the given
// instant.
func (c *ConsentRequest) IsOpen(now time.Time) bool {
	return c.status == ConsentStatusPending && now.Before(c.expiresAt)
}

// Approve records one approver's decision. The requester cannot approve
// their own request, and a repeated approval by the same identity is a
// no-op. Reaching the threshold flips the request to approved.
func (c *ConsentRequest) Approve(approver string, now time.Time) error {
	if approver == "" {
		return fmt.Errorf("approver identity is required")
	}
	if approver == c.requestedBy {
		return ErrSelfApprovalNotAllowed
	}
	if c.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if !now.Before(c.expiresAt) {
		return ErrConsentExpired
	}

	for _, a := range c.approvers {
		if a == approver {
			return nil
		}
	}

	c.approvers = append(c.approvers, approver)
	c.updatedAt = now.UTC()

	if len(c.approvers) >= c.requiredApprovals {
		decided := now.UTC()
		c.status = ConsentStatusApproved
		c.decidedAt = &decided
	}
	return nil
}

// Reject closes the request with a rejection. One rejection is terminal
// regardless of approvals already collected.
func (c *ConsentRequest) Reject(rejector, reason string, now time.Time) error {
	if rejector == "" {
		return fmt.Errorf("rejector identity is required")
	}
	if c.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if !now.Before(c.expiresAt) {
		return ErrConsentExpired
	}

	decided := now.UTC()
	c.status = ConsentStatusRejected
	c.rejectedBy = rejector
	c.rejectionReason = reason
	c.decidedAt = &decided
	c.updatedAt = decided
	return nil
}

// Cancel withdraws a pending request. Only the requester may cancel; the
// request is recorded as rejected by them.
func (c *ConsentRequest) Cancel(cancelledBy string, now time.Time) error {
	if cancelledBy != c.requestedBy {
		return fmt.Errorf("only the requester can cancel a consent request")
	}
	if c.status.IsTerminal() {
		return ErrAlreadyTerminal
	}

	decided := now.UTC()
	c.status = ConsentStatusRejected
	c.rejectedBy = cancelledBy
	c.rejectionReason = "cancelled by requester"
	c.decidedAt = &decided
	c.updatedAt = decided
	return nil
}

// MarkExpired flips a pending request past its expiry to expired.
func (c *ConsentRequest) MarkExpired(now time.Time) bool {
	if c.status != ConsentStatusPending || now.Before(c.expiresAt) {
		return false
	}
	decided := now.UTC()
	c.status = ConsentStatusExpired
	c.decidedAt = &decided
	c.updatedAt = decided
	return true
}
