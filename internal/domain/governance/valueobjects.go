// Package governance provides the domain model for the enforcement decision
// engine: allowlist entries, time rules, emergency and per-request overrides,
// consent workflows, and the decisions they produce.
package governance

// EntryType represents the kind of identifier held by an allowlist entry
type EntryType string

const (
	// EntryTypeDeviceIP identifies a device by IP address
	EntryTypeDeviceIP EntryType = "device_ip"
	// EntryTypeMAC identifies a device by MAC address
	EntryTypeMAC EntryType = "mac"
	// EntryTypeUser identifies a user
	EntryTypeUser EntryType = "user"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDeviceIP, EntryTypeMAC, EntryTypeUser:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entry type
func (t EntryType) String() string {
	return string(t)
}

// RuleAction represents what a matching time rule does
type RuleAction string

const (
	// RuleActionBlock denies matching requests
	RuleActionBlock RuleAction = "block"
	// RuleActionAlert allows matching requests but raises an alert
	RuleActionAlert RuleAction = "alert"
	// RuleActionLog allows matching requests and only records the match
	RuleActionLog RuleAction = "log"
)

// IsValid checks if the rule action is valid
func (a RuleAction) IsValid() bool {
	switch a {
	case RuleActionBlock, RuleActionAlert, RuleActionLog:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rule action
func (a RuleAction) String() string {
	return string(a)
}

// OverrideStatus represents the lifecycle state of a per-request override
type OverrideStatus string

const (
	// OverrideStatusPending means the override can still be redeemed
	OverrideStatusPending OverrideStatus = "pending"
	// OverrideStatusUsed means the override has been redeemed once
	OverrideStatusUsed OverrideStatus = "used"
	// OverrideStatusExpired means the override lapsed before redemption
	OverrideStatusExpired OverrideStatus = "expired"
	// OverrideStatusCancelled means the override was withdrawn
	OverrideStatusCancelled OverrideStatus = "cancelled"
)

// IsValid checks if the override status is valid
func (s OverrideStatus) IsValid() bool {
	switch s {
	case OverrideStatusPending, OverrideStatusUsed, OverrideStatusExpired, OverrideStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the override status
func (s OverrideStatus) String() string {
	return string(s)
}

// ConsentStatus represents the lifecycle state of a consent request
type ConsentStatus string

const (
	// ConsentStatusPending means the request is awaiting approvals
	ConsentStatusPending ConsentStatus = "pending"
	// ConsentStatusApproved means the approval threshold was reached
	ConsentStatusApproved ConsentStatus = "approved"
	// ConsentStatusRejected means the request was rejected
	ConsentStatusRejected ConsentStatus = "rejected"
	// ConsentStatusExpired means the request lapsed before a decision
	ConsentStatusExpired ConsentStatus = "expired"
)

// IsValid checks if the consent status is valid
func (s ConsentStatus) IsValid() bool {
	switch s {
	case ConsentStatusPending, ConsentStatusApproved, ConsentStatusRejected, ConsentStatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transitions
func (s ConsentStatus) IsTerminal() bool {
	return s != ConsentStatusPending
}

// String returns the string representation of the consent status
func (s ConsentStatus) String() string {
	return string(s)
}

// DecisionSource identifies which pipeline step produced a decision
type DecisionSource string

const (
	// DecisionSourceEmergency means the global emergency override allowed the request
	DecisionSourceEmergency DecisionSource = "emergency"
	// DecisionSourceAllowlistDevice means the device IP was allowlisted
	DecisionSourceAllowlistDevice DecisionSource = "allowlist_device"
	// DecisionSourceAllowlistUser means the user was allowlisted
	DecisionSourceAllowlistUser DecisionSource = "allowlist_user"
	// DecisionSourceOverride means a per-request PIN override allowed the request
	DecisionSourceOverride DecisionSource = "override"
	// DecisionSourceTimeRule means a blocking time rule denied the request
	DecisionSourceTimeRule DecisionSource = "time_rule"
	// DecisionSourcePolicy means the fallback policy evaluator decided
	DecisionSourcePolicy DecisionSource = "policy"
	// DecisionSourceError means an internal failure forced a fail-closed deny
	DecisionSourceError DecisionSource = "error"
)

// IsValid checks if the decision source is valid
func (s DecisionSource) IsValid() bool {
	switch s {
	case DecisionSourceEmergency, DecisionSourceAllowlistDevice, DecisionSourceAllowlistUser,
		DecisionSourceOverride, DecisionSourceTimeRule, DecisionSourcePolicy, DecisionSourceError:
		return true
	default:
		return false
	}
}

// String returns the string representation of the decision source
func (s DecisionSource) String() string {
	return string(s)
}

// DecisionSources lists every source in pipeline order, for statistics.
func DecisionSources() []DecisionSource {
	return []DecisionSource{
		DecisionSourceEmergency,
		DecisionSourceAllowlistDevice,
		DecisionSourceAllowlistUser,
		DecisionSourceOverride,
		DecisionSourceTimeRule,
		DecisionSourcePolicy,
		DecisionSourceError,
	}
}
