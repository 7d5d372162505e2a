package governance

import "errors"

var (
	// ErrDuplicateIdentifier is returned when an active allowlist entry
	// already exists for an identifier
	ErrDuplicateIdentifier = errors.New("allowlist entry already exists for identifier")

	// ErrDuplicateRuleName is returned when a time rule with the same name exists
	ErrDuplicateRuleName = errors.New("time rule with this name already exists")

	// ErrAlreadyActive is returned when activating an emergency override
	// while one is already active
	ErrAlreadyActive = errors.New("emergency override is already active")

	// ErrNoActiveOverride is returned when extending or deactivating without
	// an active emergency override
	ErrNoActiveOverride = errors.New("no active emergency override")

	// ErrExceedsMaxDuration is returned when an emergency override duration
	// or extension would exceed the 24 hour cap
	ErrExceedsMaxDuration = errors.New("emergency override duration exceeds maximum")

	// ErrDuplicateRequestID is returned when a pending per-request override
	// already exists for a request ID
	ErrDuplicateRequestID = errors.New("override already exists for request")

	// ErrSelfApprovalNotAllowed is returned when a requester tries to
	// approve their own consent request
	ErrSelfApprovalNotAllowed = errors.New("requester cannot approve their own request")

	// ErrAlreadyTerminal is returned when approving or rejecting a consent
	// request that has already been decided or expired
	ErrAlreadyTerminal = errors.New("consent request is already decided")

	// ErrConsentExpired is returned when acting on a consent request past
	// its expiry
	ErrConsentExpired = errors.New("consent request has expired")

	// ErrEvaluatorTimeout is returned when the fallback policy evaluator
	// does not answer within its deadline
	ErrEvaluatorTimeout = errors.New("policy evaluator timed out")

	// ErrEvaluatorUnavailable is returned for any other fallback policy
	// evaluator failure
	ErrEvaluatorUnavailable = errors.New("policy evaluator unavailable")

	// ErrNotFound is returned when an entry, rule, or request is absent
	ErrNotFound = errors.New("not found")
)
