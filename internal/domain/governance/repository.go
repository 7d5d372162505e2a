package governance

import (
	"context"
	"time"
)

// AllowlistRepository persists allowlist entries.
type AllowlistRepository interface {
	Create(ctx context.Context, entry *AllowlistEntry) error
	Update(ctx context.Context, entry *AllowlistEntry) error
	FindByID(ctx context.Context, id uint) (*AllowlistEntry, error)
	FindByIdentifier(ctx context.Context, entryType EntryType, identifier string) (*AllowlistEntry, error)
	ListActive(ctx context.Context) ([]*AllowlistEntry, error)
	List(ctx context.Context, entryType *EntryType, includeInactive bool) ([]*AllowlistEntry, error)
	CountActive(ctx context.Context) (int64, error)
	// DeactivateExpired flips active entries past their expiry and returns
	// how many rows changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// TimeRuleRepository persists time rules.
type TimeRuleRepository interface {
	Create(ctx context.Context, rule *TimeRule) error
	Update(ctx context.Context, rule *TimeRule) error
	FindByID(ctx context.Context, id uint) (*TimeRule, error)
	FindByName(ctx context.Context, name string) (*TimeRule, error)
	ListEnabled(ctx context.Context) ([]*TimeRule, error)
	List(ctx context.Context, includeDisabled bool) ([]*TimeRule, error)
}

// EmergencyRepository persists emergency overrides.
type EmergencyRepository interface {
	// CreateIfNoneActive inserts the override only when no other row is
	// currently active; otherwise it returns ErrAlreadyActive.
	CreateIfNoneActive(ctx context.Context, override *EmergencyOverride) error
	Update(ctx context.Context, override *EmergencyOverride) error
	FindByID(ctx context.Context, id uint) (*EmergencyOverride, error)
	FindActive(ctx context.Context) (*EmergencyOverride, error)
	History(ctx context.Context, limit int) ([]*EmergencyOverride, error)
	// ExpireLapsed deactivates active rows past their expiry and returns
	// how many rows changed.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// OverrideRepository persists single-use override requests.
type OverrideRepository interface {
	Create(ctx context.Context, req *OverrideRequest) error
	Update(ctx context.Context, req *OverrideRequest) error
	FindByRequestID(ctx context.Context, requestID string) (*OverrideRequest, error)
	// ConsumePending marks the request used only if it is still pending,
	// so two concurrent redemptions cannot both succeed. Returns
	// ErrNotFound when the request no longer qualifies.
	ConsumePending(ctx context.Context, requestID string, usedAt time.Time) error
	List(ctx context.Context, userID string, status *OverrideStatus, limit int) ([]*OverrideRequest, error)
	CountByStatus(ctx context.Context) (map[OverrideStatus]int64, error)
	// ExpirePending flips pending requests past their expiry and returns
	// how many rows changed.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// ConsentRepository persists consent requests.
type ConsentRepository interface {
	Create(ctx context.Context, req *ConsentRequest) error
	Update(ctx context.Context, req *ConsentRequest) error
	FindByRequestID(ctx context.Context, requestID string) (*ConsentRequest, error)
	// FindLatestDecided returns the most recently decided request of the
	// given type, or ErrNotFound when none has been decided.
	FindLatestDecided(ctx context.Context, consentType string) (*ConsentRequest, error)
	List(ctx context.Context, consentType string, status *ConsentStatus, limit int) ([]*ConsentRequest, error)
	CountByStatus(ctx context.Context) (map[ConsentStatus]int64, error)
	// ExpirePending flips pending requests past their expiry and returns
	// how many rows changed.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// DecisionLogFilter narrows audit queries. Zero values mean "any".
type DecisionLogFilter struct {
	UserID   string
	ToolName string
	Source   DecisionSource
	Allowed  *bool
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// DecisionStatistics aggregates audit records over a window.
type DecisionStatistics struct {
	Total     int64
	Allowed   int64
	Denied    int64
	BySource  map[DecisionSource]int64
	ByTool    map[string]int64
	AvgMS     float64
	WindowEnd time.Time
}

// DecisionLogRepository persists the append-only audit trail.
type DecisionLogRepository interface {
	Append(ctx context.Context, log *DecisionLog) error
	List(ctx context.Context, filter DecisionLogFilter) ([]*DecisionLog, int64, error)
	Statistics(ctx context.Context, since time.Time) (*DecisionStatistics, error)
}
