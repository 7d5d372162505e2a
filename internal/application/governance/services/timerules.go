package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/cacheutil"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// TimeRuleService manages recurring time windows and answers "which rule
// governs this instant" from a cached rule set.
type TimeRuleService struct {
	repo   governance.TimeRuleRepository
	cache  *cacheutil.Value[[]*governance.TimeRule]
	logger logger.Interface
}

// NewTimeRuleService creates a TimeRuleService with the given cache TTL.
func NewTimeRuleService(repo governance.TimeRuleRepository, cacheTTL time.Duration, log logger.Interface) *TimeRuleService {
	return &TimeRuleService{
		repo:   repo,
		cache:  cacheutil.NewValue[[]*governance.TimeRule](cacheTTL),
		logger: log,
	}
}

func (s *TimeRuleService) loadEnabled(ctx context.Context) ([]*governance.TimeRule, error) {
	rules, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("load time rules: %w", err)
	}
	// Lowest priority value first; ties go to the older rule so outcomes
	// stay deterministic.
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority() != rules[j].Priority() {
			return rules[i].Priority() < rules[j].Priority()
		}
		return rules[i].CreatedAt().Before(rules[j].CreatedAt())
	})
	return rules, nil
}

// Check returns the highest-precedence rule matching the instant, or nil
// when no window applies.
func (s *TimeRuleService) Check(ctx context.Context, at time.Time) (*governance.TimeRule, error) {
	rules, err := s.cache.Get(ctx, s.loadEnabled)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if rule.Matches(at) {
			return rule, nil
		}
	}
	return nil, nil
}

// CheckNow evaluates the rules against the current instant and reports the
// result as a DTO.
func (s *TimeRuleService) CheckNow(ctx context.Context) (*dto.CheckTimeRulesResponse, error) {
	now := time.Now().UTC()
	rule, err := s.Check(ctx, now)
	if err != nil {
		return nil, err
	}
	resp := &dto.CheckTimeRulesResponse{CheckedAt: now}
	if rule != nil {
		resp.Matched = true
		resp.Rule = timeRuleToDTO(rule)
		resp.Action = rule.Action().String()
	}
	return resp, nil
}

// Create adds a new time rule. Rule names are unique.
func (s *TimeRuleService) Create(ctx context.Context, req dto.CreateTimeRuleRequest, createdBy string) (*dto.TimeRuleResponse, error) {
	action := governance.RuleAction(req.Action)
	if !action.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid action: %s", req.Action))
	}

	days, err := weekdaysFromInts(req.DaysOfWeek)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	rule, err := governance.NewTimeRule(req.Name, req.Description, action, req.StartTime, req.EndTime, days, req.Timezone, req.Priority, createdBy)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		if apperrors.IsDuplicateError(err) || errors.Is(err, governance.ErrDuplicateRuleName) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("time rule %q already exists", req.Name))
		}
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Infow("time rule created",
		"name", rule.Name(),
		"action", rule.Action(),
		"window", rule.StartTime()+"-"+rule.EndTime(),
		"created_by", createdBy,
	)
	return timeRuleToDTO(rule), nil
}

// Update modifies a rule in place.
func (s *TimeRuleService) Update(ctx context.Context, id uint, req dto.UpdateTimeRuleRequest) (*dto.TimeRuleResponse, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("time rule not found")
		}
		return nil, err
	}

	if req.StartTime != nil || req.EndTime != nil || req.DaysOfWeek != nil {
		start := rule.StartTime()
		if req.StartTime != nil {
			start = *req.StartTime
		}
		end := rule.EndTime()
		if req.EndTime != nil {
			end = *req.EndTime
		}
		days := rule.DaysOfWeek()
		if req.DaysOfWeek != nil {
			days, err = weekdaysFromInts(req.DaysOfWeek)
			if err != nil {
				return nil, apperrors.NewValidationError(err.Error())
			}
		}
		if err := rule.UpdateWindow(start, end, days); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	name := rule.Name()
	if req.Name != nil {
		name = *req.Name
	}
	description := rule.Description()
	if req.Description != nil {
		description = *req.Description
	}
	action := rule.Action()
	if req.Action != nil {
		action = governance.RuleAction(*req.Action)
	}
	priority := rule.Priority()
	if req.Priority != nil {
		priority = *req.Priority
	}
	if err := rule.UpdateDetails(name, description, action, priority); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if req.Enabled != nil {
		if *req.Enabled {
			rule.Enable()
		} else {
			rule.Disable()
		}
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	return timeRuleToDTO(rule), nil
}

// Remove retires a rule by disabling it. The row stays behind so past
// decisions keep a rule to point at.
func (s *TimeRuleService) Remove(ctx context.Context, id uint) error {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return apperrors.NewNotFoundError("time rule not found")
		}
		return err
	}

	rule.Disable()
	if err := s.repo.Update(ctx, rule); err != nil {
		return err
	}

	s.cache.Invalidate()
	s.logger.Infow("time rule removed", "rule_id", id, "name", rule.Name())
	return nil
}

// Get fetches a single rule by ID.
func (s *TimeRuleService) Get(ctx context.Context, id uint) (*dto.TimeRuleResponse, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("time rule not found")
		}
		return nil, err
	}
	return timeRuleToDTO(rule), nil
}

// List returns all rules, optionally including disabled ones.
func (s *TimeRuleService) List(ctx context.Context, includeDisabled bool) (*dto.ListTimeRulesResponse, error) {
	rules, err := s.repo.List(ctx, includeDisabled)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListTimeRulesResponse{
		Rules: make([]*dto.TimeRuleResponse, 0, len(rules)),
		Total: len(rules),
	}
	for _, r := range rules {
		resp.Rules = append(resp.Rules, timeRuleToDTO(r))
	}
	return resp, nil
}

func weekdaysFromInts(days []int) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %d: expected 0 (Sunday) through 6 (Saturday)", d)
		}
		out = append(out, time.Weekday(d))
	}
	return out, nil
}

func timeRuleToDTO(r *governance.TimeRule) *dto.TimeRuleResponse {
	days := make([]int, 0, len(r.DaysOfWeek()))
	for _, d := range r.DaysOfWeek() {
		days = append(days, int(d))
	}
	return &dto.TimeRuleResponse{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		Action:      r.Action().String(),
		StartTime:   r.StartTime(),
		EndTime:     r.EndTime(),
		DaysOfWeek:  days,
		Timezone:    r.Timezone(),
		Priority:    r.Priority(),
		Enabled:     r.Enabled(),
		CreatedBy:   r.CreatedBy(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}
