package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/logger"
)

var errBoom = errors.New("boom")

func testLogger() logger.Interface { return logger.NewLogger() }

// In-memory repositories backing the service tests.

type memAllowlistRepo struct {
	mu      sync.Mutex
	entries map[uint]*governance.AllowlistEntry
	nextID  uint
	failAll bool
}

func newMemAllowlistRepo() *memAllowlistRepo {
	return &memAllowlistRepo{entries: make(map[uint]*governance.AllowlistEntry), nextID: 1}
}

func (r *memAllowlistRepo) Create(_ context.Context, entry *governance.AllowlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errBoom
	}
	_ = entry.SetID(r.nextID)
	r.entries[r.nextID] = entry
	r.nextID++
	return nil
}

func (r *memAllowlistRepo) Update(_ context.Context, entry *governance.AllowlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errBoom
	}
	r.entries[entry.ID()] = entry
	return nil
}

func (r *memAllowlistRepo) FindByID(_ context.Context, id uint) (*governance.AllowlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, governance.ErrNotFound
	}
	return entry, nil
}

func (r *memAllowlistRepo) FindByIdentifier(_ context.Context, entryType governance.EntryType, identifier string) (*governance.AllowlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.EntryType() == entryType && e.Identifier() == identifier {
			return e, nil
		}
	}
	return nil, governance.ErrNotFound
}

func (r *memAllowlistRepo) ListActive(_ context.Context) ([]*governance.AllowlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errBoom
	}
	var out []*governance.AllowlistEntry
	for _, e := range r.entries {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memAllowlistRepo) List(_ context.Context, entryType *governance.EntryType, includeInactive bool) ([]*governance.AllowlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.AllowlistEntry
	for _, e := range r.entries {
		if entryType != nil && e.EntryType() != *entryType {
			continue
		}
		if !includeInactive && !e.Active() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memAllowlistRepo) CountActive(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		if e.Active() {
			n++
		}
	}
	return n, nil
}

func (r *memAllowlistRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		if e.Active() && e.IsExpired(now) {
			e.Deactivate()
			n++
		}
	}
	return n, nil
}

type memTimeRuleRepo struct {
	mu     sync.Mutex
	rules  map[uint]*governance.TimeRule
	nextID uint
}

func newMemTimeRuleRepo() *memTimeRuleRepo {
	return &memTimeRuleRepo{rules: make(map[uint]*governance.TimeRule), nextID: 1}
}

func (r *memTimeRuleRepo) Create(_ context.Context, rule *governance.TimeRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rules {
		if existing.Name() == rule.Name() {
			return governance.ErrDuplicateRuleName
		}
	}
	_ = rule.SetID(r.nextID)
	r.rules[r.nextID] = rule
	r.nextID++
	return nil
}

func (r *memTimeRuleRepo) Update(_ context.Context, rule *governance.TimeRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID()] = rule
	return nil
}

func (r *memTimeRuleRepo) FindByID(_ context.Context, id uint) (*governance.TimeRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, governance.ErrNotFound
	}
	return rule, nil
}

func (r *memTimeRuleRepo) FindByName(_ context.Context, name string) (*governance.TimeRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.Name() == name {
			return rule, nil
		}
	}
	return nil, governance.ErrNotFound
}

func (r *memTimeRuleRepo) ListEnabled(_ context.Context) ([]*governance.TimeRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.TimeRule
	for _, rule := range r.rules {
		if rule.Enabled() {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *memTimeRuleRepo) List(_ context.Context, includeDisabled bool) ([]*governance.TimeRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.TimeRule
	for _, rule := range r.rules {
		if includeDisabled || rule.Enabled() {
			out = append(out, rule)
		}
	}
	return out, nil
}

type memEmergencyRepo struct {
	mu        sync.Mutex
	overrides map[uint]*governance.EmergencyOverride
	nextID    uint
}

func newMemEmergencyRepo() *memEmergencyRepo {
	return &memEmergencyRepo{overrides: make(map[uint]*governance.EmergencyOverride), nextID: 1}
}

func (r *memEmergencyRepo) CreateIfNoneActive(_ context.Context, override *governance.EmergencyOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.overrides {
		if o.Active() {
			return governance.ErrAlreadyActive
		}
	}
	_ = override.SetID(r.nextID)
	r.overrides[r.nextID] = override
	r.nextID++
	return nil
}

func (r *memEmergencyRepo) Update(_ context.Context, override *governance.EmergencyOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[override.ID()] = override
	return nil
}

func (r *memEmergencyRepo) FindByID(_ context.Context, id uint) (*governance.EmergencyOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.overrides[id]
	if !ok {
		return nil, governance.ErrNotFound
	}
	return o, nil
}

func (r *memEmergencyRepo) FindActive(_ context.Context) (*governance.EmergencyOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.overrides {
		if o.Active() {
			return o, nil
		}
	}
	return nil, governance.ErrNotFound
}

func (r *memEmergencyRepo) History(_ context.Context, limit int) ([]*governance.EmergencyOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.EmergencyOverride
	for _, o := range r.overrides {
		out = append(out, o)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memEmergencyRepo) ExpireLapsed(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.overrides {
		if o.MarkExpired(now) {
			n++
		}
	}
	return n, nil
}

type memOverrideRepo struct {
	mu     sync.Mutex
	reqs   map[string]*governance.OverrideRequest
	nextID uint
}

func newMemOverrideRepo() *memOverrideRepo {
	return &memOverrideRepo{reqs: make(map[string]*governance.OverrideRequest), nextID: 1}
}

func (r *memOverrideRepo) Create(_ context.Context, req *governance.OverrideRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = req.SetID(r.nextID)
	r.reqs[req.RequestID()] = req
	r.nextID++
	return nil
}

func (r *memOverrideRepo) Update(_ context.Context, req *governance.OverrideRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs[req.RequestID()] = req
	return nil
}

func (r *memOverrideRepo) FindByRequestID(_ context.Context, requestID string) (*governance.OverrideRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[requestID]
	if !ok {
		return nil, governance.ErrNotFound
	}
	// Return a detached copy, the way a real repository rehydrates rows.
	return governance.ReconstructOverrideRequest(
		req.ID(), req.RequestID(), req.UserID(), req.ToolName(), req.Reason(),
		req.PINHash(), req.Status(), req.ExpiresAt(), req.UsedAt(), req.CancelledBy(),
		req.CreatedAt(), req.UpdatedAt(),
	)
}

func (r *memOverrideRepo) ConsumePending(_ context.Context, requestID string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[requestID]
	if !ok {
		return governance.ErrNotFound
	}
	if err := req.MarkUsed(usedAt); err != nil {
		return governance.ErrNotFound
	}
	return nil
}

func (r *memOverrideRepo) List(_ context.Context, userID string, status *governance.OverrideStatus, limit int) ([]*governance.OverrideRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.OverrideRequest
	for _, req := range r.reqs {
		if userID != "" && req.UserID() != userID {
			continue
		}
		if status != nil && req.Status() != *status {
			continue
		}
		out = append(out, req)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memOverrideRepo) CountByStatus(_ context.Context) (map[governance.OverrideStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[governance.OverrideStatus]int64)
	for _, req := range r.reqs {
		out[req.Status()]++
	}
	return out, nil
}

func (r *memOverrideRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, req := range r.reqs {
		if req.MarkExpired(now) {
			n++
		}
	}
	return n, nil
}

type memConsentRepo struct {
	mu     sync.Mutex
	reqs   map[string]*governance.ConsentRequest
	nextID uint
}

func newMemConsentRepo() *memConsentRepo {
	return &memConsentRepo{reqs: make(map[string]*governance.ConsentRequest), nextID: 1}
}

func (r *memConsentRepo) Create(_ context.Context, req *governance.ConsentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = req.SetID(r.nextID)
	r.reqs[req.RequestID()] = req
	r.nextID++
	return nil
}

func (r *memConsentRepo) Update(_ context.Context, req *governance.ConsentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs[req.RequestID()] = req
	return nil
}

func (r *memConsentRepo) FindByRequestID(_ context.Context, requestID string) (*governance.ConsentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[requestID]
	if !ok {
		return nil, governance.ErrNotFound
	}
	return req, nil
}

func (r *memConsentRepo) FindLatestDecided(_ context.Context, consentType string) (*governance.ConsentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *governance.ConsentRequest
	for _, req := range r.reqs {
		if req.ConsentType() != consentType || req.DecidedAt() == nil {
			continue
		}
		if latest == nil || req.DecidedAt().After(*latest.DecidedAt()) {
			latest = req
		}
	}
	if latest == nil {
		return nil, governance.ErrNotFound
	}
	return latest, nil
}

func (r *memConsentRepo) List(_ context.Context, consentType string, status *governance.ConsentStatus, limit int) ([]*governance.ConsentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.ConsentRequest
	for _, req := range r.reqs {
		if consentType != "" && req.ConsentType() != consentType {
			continue
		}
		if status != nil && req.Status() != *status {
			continue
		}
		out = append(out, req)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memConsentRepo) CountByStatus(_ context.Context) (map[governance.ConsentStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[governance.ConsentStatus]int64)
	for _, req := range r.reqs {
		out[req.Status()]++
	}
	return out, nil
}

func (r *memConsentRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, req := range r.reqs {
		if req.MarkExpired(now) {
			n++
		}
	}
	return n, nil
}

type memDecisionRepo struct {
	mu   sync.Mutex
	logs []*governance.DecisionLog
	fail bool
}

func (r *memDecisionRepo) Append(_ context.Context, log *governance.DecisionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errBoom
	}
	log.SetID(uint(len(r.logs) + 1))
	r.logs = append(r.logs, log)
	return nil
}

func (r *memDecisionRepo) List(_ context.Context, filter governance.DecisionLogFilter) ([]*governance.DecisionLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*governance.DecisionLog
	for _, l := range r.logs {
		if filter.UserID != "" && l.UserID() != filter.UserID {
			continue
		}
		if filter.ToolName != "" && l.ToolName() != filter.ToolName {
			continue
		}
		if filter.Allowed != nil && l.Allowed() != *filter.Allowed {
			continue
		}
		if filter.Source != "" && l.Source() != filter.Source {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *memDecisionRepo) Statistics(_ context.Context, since time.Time) (*governance.DecisionStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &governance.DecisionStatistics{
		BySource: make(map[governance.DecisionSource]int64),
		ByTool:   make(map[string]int64),
	}
	for _, l := range r.logs {
		if l.EvaluatedAt().Before(since) {
			continue
		}
		stats.Total++
		if l.Allowed() {
			stats.Allowed++
		} else {
			stats.Denied++
		}
		stats.BySource[l.Source()]++
		stats.ByTool[l.ToolName()]++
	}
	return stats, nil
}

func (r *memDecisionRepo) last() *governance.DecisionLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) == 0 {
		return nil
	}
	return r.logs[len(r.logs)-1]
}

// stubEvaluator is a canned policy backend.
type stubEvaluator struct {
	result governance.PolicyResult
	err    error
}

func (e *stubEvaluator) Evaluate(_ context.Context, _ governance.PolicyInput) (governance.PolicyResult, error) {
	return e.result, e.err
}

func (e *stubEvaluator) Name() string { return "stub" }

// fakeLimiter counts failures in memory with a fixed threshold.
type fakeLimiter struct {
	mu       sync.Mutex
	failures map[string]int64
	max      int64
}

func newFakeLimiter(max int64) *fakeLimiter {
	return &fakeLimiter{failures: make(map[string]int64), max: max}
}

func (l *fakeLimiter) IsLocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[key] >= l.max, nil
}

func (l *fakeLimiter) RecordFailure(_ context.Context, key string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key]++
	return l.max - l.failures[key], nil
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
	return nil
}
