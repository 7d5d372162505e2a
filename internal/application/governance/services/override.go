package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// PINAttemptLimiter throttles PIN verification attempts per user so the
// 4-digit space cannot be brute forced.
type PINAttemptLimiter interface {
	// IsLocked reports whether the key is locked out from further attempts.
	IsLocked(ctx context.Context, key string) (bool, error)
	// RecordFailure counts one failed attempt and returns the remaining
	// attempts before lockout.
	RecordFailure(ctx context.Context, key string) (int64, error)
	// Reset clears the failure count after a successful verification.
	Reset(ctx context.Context, key string) error
}

// OverrideService manages single-use, PIN-gated override requests.
type OverrideService struct {
	repo    governance.OverrideRepository
	limiter PINAttemptLimiter
	logger  logger.Interface

	masterMu  sync.RWMutex
	masterPIN *governance.PINHash
}

// NewOverrideService creates an OverrideService. The limiter may be nil
// when no redis is configured; attempts are then unthrottled.
func NewOverrideService(repo governance.OverrideRepository, limiter PINAttemptLimiter, log logger.Interface) *OverrideService {
	return &OverrideService{
		repo:    repo,
		limiter: limiter,
		logger:  log,
	}
}

// SetMasterPIN installs an operator master PIN that redeems any pending
// override request. Only the hash is kept in memory.
func (s *OverrideService) SetMasterPIN(pin string) error {
	hash, err := governance.NewPINHash(pin)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	s.masterMu.Lock()
	s.masterPIN = &hash
	s.masterMu.Unlock()

	s.logger.Infow("master PIN installed")
	return nil
}

// ClearMasterPIN removes the master PIN.
func (s *OverrideService) ClearMasterPIN() {
	s.masterMu.Lock()
	s.masterPIN = nil
	s.masterMu.Unlock()

	s.logger.Infow("master PIN cleared")
}

func (s *OverrideService) matchesMasterPIN(pin string) bool {
	s.masterMu.RLock()
	defer s.masterMu.RUnlock()
	return s.masterPIN != nil && s.masterPIN.Verify(pin)
}

// Create opens a pending override request protected by the given PIN.
// Callers may key the request to the blocked call's request ID; a second
// request under a still-pending request ID is a conflict.
func (s *OverrideService) Create(ctx context.Context, req dto.CreateOverrideRequest) (*dto.OverrideResponse, error) {
	ttl := time.Duration(req.TTLSeconds) * time.Second
	override, err := governance.NewOverrideRequest(req.RequestID, req.UserID, req.ToolName, req.Reason, req.PIN, ttl)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if req.RequestID != "" {
		existing, err := s.repo.FindByRequestID(ctx, req.RequestID)
		if err != nil && !errors.Is(err, governance.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.IsRedeemable(time.Now().UTC()) {
			return nil, apperrors.NewConflictError("an override request with this request_id is already pending")
		}
	}

	if err := s.repo.Create(ctx, override); err != nil {
		if apperrors.IsDuplicateError(err) {
			return nil, apperrors.NewConflictError("an override request with this request_id already exists")
		}
		return nil, err
	}

	s.logger.Infow("override request created",
		"request_id", override.RequestID(),
		"user_id", override.UserID(),
		"tool_name", override.ToolName(),
		"expires_at", override.ExpiresAt(),
	)
	return overrideToDTO(override), nil
}

// Redeem consumes a pending override after verifying its PIN. A wrong PIN
// counts toward the attempt lockout; the consume itself is conditional so
// two concurrent redemptions cannot both succeed.
func (s *OverrideService) Redeem(ctx context.Context, req dto.RedeemOverrideRequest) (*dto.RedeemOverrideResponse, error) {
	ok, err := s.Validate(ctx, req.RequestID, req.PIN)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &dto.RedeemOverrideResponse{Granted: false, RequestID: req.RequestID, Reason: "invalid or expired override"}, nil
	}
	return &dto.RedeemOverrideResponse{Granted: true, RequestID: req.RequestID}, nil
}

// Validate verifies the PIN and consumes the override in one step. It
// returns false for any non-grantable outcome: unknown request, wrong PIN,
// expired or already used. Lockout violations surface as errors.
func (s *OverrideService) Validate(ctx context.Context, requestID, pin string) (bool, error) {
	override, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	limiterKey := override.UserID()
	if s.limiter != nil {
		locked, err := s.limiter.IsLocked(ctx, limiterKey)
		if err != nil {
			return false, err
		}
		if locked {
			s.logger.Warnw("override redemption blocked by PIN lockout",
				"request_id", requestID,
				"user_id", override.UserID(),
			)
			return false, apperrors.NewForbiddenError("too many failed PIN attempts, try again later")
		}
	}

	if !override.VerifyPIN(pin) && !s.matchesMasterPIN(pin) {
		if s.limiter != nil {
			remaining, lerr := s.limiter.RecordFailure(ctx, limiterKey)
			if lerr != nil {
				s.logger.Errorw("failed to record PIN failure", "error", lerr)
			} else {
				s.logger.Warnw("override PIN verification failed",
					"request_id", requestID,
					"user_id", override.UserID(),
					"attempts_remaining", remaining,
				)
			}
		}
		return false, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, limiterKey); err != nil {
			s.logger.Errorw("failed to reset PIN attempt counter", "error", err)
		}
	}

	now := time.Now().UTC()
	if !override.IsRedeemable(now) {
		return false, nil
	}
	if err := s.repo.ConsumePending(ctx, requestID, now); err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			// Lost the race to a concurrent redemption.
			return false, nil
		}
		return false, err
	}

	s.logger.Infow("override redeemed",
		"request_id", requestID,
		"user_id", override.UserID(),
		"tool_name", override.ToolName(),
	)
	return true, nil
}

// Cancel withdraws a pending override before use.
func (s *OverrideService) Cancel(ctx context.Context, requestID string, req dto.CancelOverrideRequest) error {
	override, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return apperrors.NewNotFoundError("override request not found")
		}
		return err
	}

	if err := override.Cancel(req.CancelledBy); err != nil {
		return apperrors.NewConflictError(err.Error())
	}
	if err := s.repo.Update(ctx, override); err != nil {
		return err
	}

	s.logger.Infow("override request cancelled",
		"request_id", requestID,
		"cancelled_by", req.CancelledBy,
	)
	return nil
}

// Get fetches a single override request.
func (s *OverrideService) Get(ctx context.Context, requestID string) (*dto.OverrideResponse, error) {
	override, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("override request not found")
		}
		return nil, err
	}
	return overrideToDTO(override), nil
}

// List returns override requests matching the filter.
func (s *OverrideService) List(ctx context.Context, req dto.ListOverridesRequest) (*dto.ListOverridesResponse, error) {
	var status *governance.OverrideStatus
	if req.Status != nil && *req.Status != "" {
		st := governance.OverrideStatus(*req.Status)
		if !st.IsValid() {
			return nil, apperrors.NewValidationError("invalid override status")
		}
		status = &st
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	overrides, err := s.repo.List(ctx, req.UserID, status, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListOverridesResponse{
		Overrides: make([]*dto.OverrideResponse, 0, len(overrides)),
		Total:     len(overrides),
	}
	for _, o := range overrides {
		resp.Overrides = append(resp.Overrides, overrideToDTO(o))
	}
	return resp, nil
}

// Stats counts override requests by status.
func (s *OverrideService) Stats(ctx context.Context) (*dto.OverrideStatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.OverrideStatsResponse{ByStatus: make(map[string]int64, len(counts))}
	for status, n := range counts {
		resp.ByStatus[status.String()] = n
		resp.Total += n
	}
	return resp, nil
}

// SweepExpired flips pending requests past their expiry. Returns the
// number of rows swept.
func (s *OverrideService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("expired override requests swept", "count", n)
	}
	return n, nil
}

func overrideToDTO(o *governance.OverrideRequest) *dto.OverrideResponse {
	return &dto.OverrideResponse{
		RequestID:   o.RequestID(),
		UserID:      o.UserID(),
		ToolName:    o.ToolName(),
		Reason:      o.Reason(),
		Status:      o.Status().String(),
		ExpiresAt:   o.ExpiresAt(),
		UsedAt:      o.UsedAt(),
		CancelledBy: o.CancelledBy(),
		CreatedAt:   o.CreatedAt(),
	}
}
