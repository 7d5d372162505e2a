package services

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// EnforcementService coordinates the decision chain for tool-call access.
//
// Evaluation order, first match wins:
//  1. Emergency override - if active, allow all
//  2. Allowlist (device IP/MAC) - allow
//  3. Allowlist (user) - allow
//  4. Per-request override - redeem and allow
//  5. Time rules - block denies, alert and log pass through
//  6. Policy evaluator - final verdict
//
// Any stage failure denies the request with source "error", and every
// decision is appended to the audit trail.
type EnforcementService struct {
	emergency     *EmergencyService
	allowlist     *AllowlistService
	override      *OverrideService
	timeRules     *TimeRuleService
	evaluator     governance.PolicyEvaluator
	decisions     governance.DecisionLogRepository
	policyTimeout time.Duration
	logger        logger.Interface
}

// NewEnforcementService creates the coordinator. A nil evaluator means no
// policy backend is configured and undecided requests are allowed through.
func NewEnforcementService(
	emergency *EmergencyService,
	allowlist *AllowlistService,
	override *OverrideService,
	timeRules *TimeRuleService,
	evaluator governance.PolicyEvaluator,
	decisions governance.DecisionLogRepository,
	policyTimeout time.Duration,
	log logger.Interface,
) *EnforcementService {
	if policyTimeout <= 0 {
		policyTimeout = 50 * time.Millisecond
	}
	return &EnforcementService{
		emergency:     emergency,
		allowlist:     allowlist,
		override:      override,
		timeRules:     timeRules,
		evaluator:     evaluator,
		decisions:     decisions,
		policyTimeout: policyTimeout,
		logger:        log,
	}
}

// Evaluate runs the full decision chain for one request. It never returns
// an error for evaluation failures; those fail closed as denials.
func (s *EnforcementService) Evaluate(ctx context.Context, req governance.AccessRequest) dto.DecisionResponse {
	start := time.Now()

	decision, err := s.decide(ctx, req)
	if err != nil {
		s.logger.Errorw("enforcement evaluation failed",
			"user_id", req.UserID,
			"tool_name", req.ToolName,
			"error", err,
		)
		decision = governance.Deny(governance.DecisionSourceError, fmt.Sprintf("policy evaluation error: %v", err))
	}
	decision.Elapsed = time.Since(start)

	s.audit(ctx, req, decision)

	return dto.DecisionResponse{
		Allowed:     decision.Allowed,
		Source:      decision.Source.String(),
		Reason:      decision.Reason,
		RuleName:    decision.RuleName,
		EvaluatedAt: decision.EvaluatedAt,
		ElapsedMS:   decision.Elapsed.Milliseconds(),
	}
}

// EvaluateSimple returns just allow/deny without touching the audit trail.
func (s *EnforcementService) EvaluateSimple(ctx context.Context, userID, deviceIP string) bool {
	decision, err := s.decide(ctx, governance.AccessRequest{UserID: userID, DeviceIP: deviceIP})
	if err != nil {
		return false
	}
	return decision.Allowed
}

func (s *EnforcementService) decide(ctx context.Context, req governance.AccessRequest) (governance.Decision, error) {
	// 1. Emergency override
	active, override, err := s.emergency.IsActive(ctx)
	if err != nil {
		return governance.Decision{}, fmt.Errorf("emergency check: %w", err)
	}
	if active {
		return governance.Allow(governance.DecisionSourceEmergency,
			fmt.Sprintf("emergency override active: %s", override.Reason())), nil
	}

	// 2. Device allowlist
	if req.DeviceIP != "" || req.DeviceMAC != "" {
		entry, err := s.allowlist.CheckDevice(ctx, req.DeviceIP, req.DeviceMAC)
		if err != nil {
			return governance.Decision{}, fmt.Errorf("device allowlist check: %w", err)
		}
		if entry != nil {
			return governance.Allow(governance.DecisionSourceAllowlistDevice,
				fmt.Sprintf("device %s is allowlisted", entry.Identifier())), nil
		}
	}

	// 3. User allowlist
	if req.UserID != "" {
		entry, err := s.allowlist.CheckUser(ctx, req.UserID)
		if err != nil {
			return governance.Decision{}, fmt.Errorf("user allowlist check: %w", err)
		}
		if entry != nil {
			return governance.Allow(governance.DecisionSourceAllowlistUser,
				fmt.Sprintf("user %s is allowlisted", entry.Identifier())), nil
		}
	}

	// 4. Per-request override. A lockout is a real denial, not a chain
	// error, so it maps to a deny instead of failing closed generically.
	if req.OverrideRequestID != "" && req.OverridePIN != "" {
		ok, err := s.override.Validate(ctx, req.OverrideRequestID, req.OverridePIN)
		if err != nil {
			if apperrors.IsAppError(err) {
				return governance.Deny(governance.DecisionSourceOverride, apperrors.GetAppError(err).Message), nil
			}
			return governance.Decision{}, fmt.Errorf("override check: %w", err)
		}
		if ok {
			return governance.Allow(governance.DecisionSourceOverride, "valid override PIN provided"), nil
		}
	}

	// 5. Time rules
	now := time.Now().UTC()
	rule, err := s.timeRules.Check(ctx, now)
	if err != nil {
		return governance.Decision{}, fmt.Errorf("time rule check: %w", err)
	}
	if rule != nil {
		switch rule.Action() {
		case governance.RuleActionBlock:
			d := governance.Deny(governance.DecisionSourceTimeRule,
				fmt.Sprintf("blocked by time rule %q", rule.Name()))
			d.RuleName = rule.Name()
			return d, nil
		case governance.RuleActionAlert:
			s.logger.Warnw("time rule alert",
				"rule", rule.Name(),
				"user_id", req.UserID,
				"tool_name", req.ToolName,
			)
		case governance.RuleActionLog:
			s.logger.Infow("time rule matched",
				"rule", rule.Name(),
				"user_id", req.UserID,
				"tool_name", req.ToolName,
			)
		}
	}

	// 6. Policy evaluator
	return s.evaluatePolicy(ctx, req)
}

func (s *EnforcementService) evaluatePolicy(ctx context.Context, req governance.AccessRequest) (governance.Decision, error) {
	if s.evaluator == nil {
		return governance.Allow(governance.DecisionSourcePolicy, "no policy engine configured"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.policyTimeout)
	defer cancel()

	result, err := s.evaluator.Evaluate(ctx, governance.PolicyInput{
		UserID:    req.UserID,
		ToolName:  req.ToolName,
		DeviceIP:  req.DeviceIP,
		DeviceMAC: req.DeviceMAC,
		Timestamp: time.Now().UTC(),
		Metadata:  req.Metadata,
	})
	if err != nil {
		return governance.Decision{}, fmt.Errorf("%s evaluation: %w", s.evaluator.Name(), err)
	}

	reason := result.Reason
	if reason == "" {
		reason = "policy evaluation complete"
	}
	if result.Allow {
		return governance.Allow(governance.DecisionSourcePolicy, reason), nil
	}
	return governance.Deny(governance.DecisionSourcePolicy, reason), nil
}

// audit appends the decision to the trail. Audit failures are logged but
// never change the decision already made.
func (s *EnforcementService) audit(ctx context.Context, req governance.AccessRequest, d governance.Decision) {
	if s.decisions == nil {
		return
	}
	if err := s.decisions.Append(ctx, governance.NewDecisionLog(req, d)); err != nil {
		s.logger.Errorw("failed to append decision log",
			"user_id", req.UserID,
			"tool_name", req.ToolName,
			"allowed", d.Allowed,
			"error", err,
		)
	}
}

// Decisions queries the audit trail.
func (s *EnforcementService) Decisions(ctx context.Context, req dto.ListDecisionsRequest) (*dto.ListDecisionsResponse, error) {
	filter := governance.DecisionLogFilter{
		UserID:   req.UserID,
		ToolName: req.ToolName,
		Allowed:  req.Allowed,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Source != "" {
		src := governance.DecisionSource(req.Source)
		if !src.IsValid() {
			return nil, apperrors.NewValidationError("invalid decision source")
		}
		filter.Source = src
	}
	since, err := parseOptionalTime(req.Since)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid since", err.Error())
	}
	filter.Since = since
	until, err := parseOptionalTime(req.Until)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid until", err.Error())
	}
	filter.Until = until
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	logs, total, err := s.decisions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListDecisionsResponse{
		Decisions: make([]*dto.DecisionLogResponse, 0, len(logs)),
		Total:     total,
	}
	for _, l := range logs {
		resp.Decisions = append(resp.Decisions, &dto.DecisionLogResponse{
			ID:          l.ID(),
			UserID:      l.UserID(),
			ToolName:    l.ToolName(),
			DeviceIP:    l.DeviceIP(),
			DeviceMAC:   l.DeviceMAC(),
			Allowed:     l.Allowed(),
			Source:      l.Source().String(),
			Reason:      l.Reason(),
			RuleName:    l.RuleName(),
			ElapsedMS:   l.ElapsedMS(),
			EvaluatedAt: l.EvaluatedAt(),
		})
	}
	return resp, nil
}

// Statistics aggregates the audit trail since the given time, defaulting
// to the last 24 hours.
func (s *EnforcementService) Statistics(ctx context.Context, since *time.Time) (*dto.DecisionStatsResponse, error) {
	from := time.Now().UTC().Add(-24 * time.Hour)
	if since != nil {
		from = since.UTC()
	}

	stats, err := s.decisions.Statistics(ctx, from)
	if err != nil {
		return nil, err
	}

	bySource := make(map[string]int64, len(stats.BySource))
	for src, n := range stats.BySource {
		bySource[src.String()] = n
	}
	return &dto.DecisionStatsResponse{
		Total:    stats.Total,
		Allowed:  stats.Allowed,
		Denied:   stats.Denied,
		BySource: bySource,
		ByTool:   stats.ByTool,
		AvgMS:    stats.AvgMS,
		Since:    from,
	}, nil
}
