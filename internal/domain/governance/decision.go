package governance

import (
	"context"
	"time"
)

// AccessRequest carries the identity and device context of one tool call
// awaiting an enforcement decision.
type AccessRequest struct {
	UserID    string
	ToolName  string
	DeviceIP  string
	DeviceMAC string
	// OverrideRequestID and OverridePIN, when both set, attempt to redeem
	// a single-use override during evaluation.
	OverrideRequestID string
	OverridePIN       string
	Metadata          map[string]string
}

// Decision is the outcome of evaluating one access request.
type Decision struct {
	Allowed     bool
	Source      DecisionSource
	Reason      string
	RuleName    string
	EvaluatedAt time.Time
	Elapsed     time.Duration
}

// Allow builds a permitting decision from the given source.
func Allow(source DecisionSource, reason string) Decision {
	return Decision{Allowed: true, Source: source, Reason: reason, EvaluatedAt: time.Now().UTC()}
}

// Deny builds a blocking decision from the given source.
func Deny(source DecisionSource, reason string) Decision {
	return Decision{Allowed: false, Source: source, Reason: reason, EvaluatedAt: time.Now().UTC()}
}

// DecisionLog is one audit record of an enforcement decision. Records are
// append-only.
type DecisionLog struct {
	id          uint
	userID      string
	toolName    string
	deviceIP    string
	deviceMAC   string
	allowed     bool
	source      DecisionSource
	reason      string
	ruleName    string
	elapsedMS   int64
	evaluatedAt time.Time
}

// NewDecisionLog builds an audit record for a decided request.
func NewDecisionLog(req AccessRequest, d Decision) *DecisionLog {
	return &DecisionLog{
		userID:      req.UserID,
		toolName:    req.ToolName,
		deviceIP:    req.DeviceIP,
		deviceMAC:   req.DeviceMAC,
		allowed:     d.Allowed,
		source:      d.Source,
		reason:      d.Reason,
		ruleName:    d.RuleName,
		elapsedMS:   d.Elapsed.Milliseconds(),
		evaluatedAt: d.EvaluatedAt,
	}
}

// ReconstructDecisionLog rebuilds an audit record from persistence.
func ReconstructDecisionLog(
	id uint,
	userID, toolName, deviceIP, deviceMAC string,
	allowed bool,
	source DecisionSource,
	reason, ruleName string,
	elapsedMS int64,
	evaluatedAt time.Time,
) *DecisionLog {
	return &DecisionLog{
		id:          id,
		userID:      userID,
		toolName:    toolName,
		deviceIP:    deviceIP,
		deviceMAC:   deviceMAC,
		allowed:     allowed,
		source:      source,
		reason:      reason,
		ruleName:    ruleName,
		elapsedMS:   elapsedMS,
		evaluatedAt: evaluatedAt,
	}
}

// ID returns the record ID
func (l *DecisionLog) ID() uint { return l.id }

// UserID returns the requesting user
func (l *DecisionLog) UserID() string { return l.userID }

// ToolName returns the tool requested
func (l *DecisionLog) ToolName() string { return l.toolName }

// DeviceIP returns the device IP at request time
func (l *DecisionLog) DeviceIP() string { return l.deviceIP }

// DeviceMAC returns the device MAC at request time
func (l *DecisionLog) DeviceMAC() string { return l.deviceMAC }

// Allowed reports whether the request was permitted
func (l *DecisionLog) Allowed() bool { return l.allowed }

// Source returns which stage of the chain decided
func (l *DecisionLog) Source() DecisionSource { return l.source }

// Reason returns the decision reason
func (l *DecisionLog) Reason() string { return l.reason }

// RuleName returns the matched rule name, when a time rule decided
func (l *DecisionLog) RuleName() string { return l.ruleName }

// ElapsedMS returns evaluation latency in milliseconds
func (l *DecisionLog) ElapsedMS() int64 { return l.elapsedMS }

// EvaluatedAt returns when the decision was made
func (l *DecisionLog) EvaluatedAt() time.Time { return l.evaluatedAt }

// SetID sets the record ID (persistence layer use only)
func (l *DecisionLog) SetID(id uint) {
	if l.id == 0 {
		l.id = id
	}
}

// PolicyInput is the document handed to the fallback policy evaluator when
// no earlier stage decides.
type PolicyInput struct {
	UserID    string            `json:"user_id"`
	ToolName  string            `json:"tool_name"`
	DeviceIP  string            `json:"device_ip,omitempty"`
	DeviceMAC string            `json:"device_mac,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PolicyResult is the evaluator's verdict.
type PolicyResult struct {
	Allow  bool
	Reason string
}

// PolicyEvaluator decides requests that no governance stage settled.
// Implementations must honor the context deadline; evaluation failures are
// surfaced as errors so the caller can fail closed.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, input PolicyInput) (PolicyResult, error)
	Name() string
}
