package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/cacheutil"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// EmergencyService manages the global emergency override. The active
// override is cached with a short TTL because it sits first in the
// enforcement chain.
type EmergencyService struct {
	repo   governance.EmergencyRepository
	cache  *cacheutil.Value[*governance.EmergencyOverride]
	logger logger.Interface

	// Serializes activations in this process; the repository's
	// conditional insert guards across processes.
	mu sync.Mutex
}

// NewEmergencyService creates an EmergencyService with the given cache TTL.
func NewEmergencyService(repo governance.EmergencyRepository, cacheTTL time.Duration, log logger.Interface) *EmergencyService {
	return &EmergencyService{
		repo:   repo,
		cache:  cacheutil.NewValue[*governance.EmergencyOverride](cacheTTL),
		logger: log,
	}
}

func (s *EmergencyService) loadActive(ctx context.Context) (*governance.EmergencyOverride, error) {
	override, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return override, nil
}

// IsActive reports whether an emergency override is in effect right now.
func (s *EmergencyService) IsActive(ctx context.Context) (bool, *governance.EmergencyOverride, error) {
	override, err := s.cache.Get(ctx, s.loadActive)
	if err != nil {
		return false, nil, err
	}
	if override == nil || !override.IsEffective(time.Now().UTC()) {
		return false, nil, nil
	}
	return true, override, nil
}

// Activate turns the emergency override on. At most one override can be
// active; a second activation fails with a conflict.
func (s *EmergencyService) Activate(ctx context.Context, req dto.ActivateEmergencyRequest) (*dto.EmergencyStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := time.Duration(req.DurationMinutes) * time.Minute
	override, err := governance.NewEmergencyOverride(req.Reason, req.ActivatedBy, duration)
	if err != nil {
		if errors.Is(err, governance.ErrExceedsMaxDuration) {
			return nil, apperrors.NewValidationError("duration exceeds the 24 hour maximum")
		}
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.repo.CreateIfNoneActive(ctx, override); err != nil {
		if errors.Is(err, governance.ErrAlreadyActive) {
			return nil, apperrors.NewConflictError("an emergency override is already active")
		}
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Warnw("emergency override activated",
		"activated_by", req.ActivatedBy,
		"reason", req.Reason,
		"expires_at", override.ExpiresAt(),
	)
	return s.statusFromOverride(override), nil
}

// Deactivate turns the active override off before its expiry.
func (s *EmergencyService) Deactivate(ctx context.Context, req dto.DeactivateEmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	override, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return apperrors.NewNotFoundError("no active emergency override")
		}
		return err
	}

	if err := override.Deactivate(req.DeactivatedBy); err != nil {
		return apperrors.NewConflictError(err.Error())
	}
	if err := s.repo.Update(ctx, override); err != nil {
		return err
	}

	s.cache.Invalidate()
	s.logger.Warnw("emergency override deactivated",
		"deactivated_by", req.DeactivatedBy,
		"override_id", override.ID(),
	)
	return nil
}

// Extend pushes the active override's expiry out, still capped at 24 hours
// from activation.
func (s *EmergencyService) Extend(ctx context.Context, req dto.ExtendEmergencyRequest) (*dto.EmergencyStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	override, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("no active emergency override")
		}
		return nil, err
	}

	extra := time.Duration(req.ExtensionMinutes) * time.Minute
	if err := override.Extend(extra, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, governance.ErrExceedsMaxDuration):
			return nil, apperrors.NewValidationError("extension exceeds the 24 hour maximum from activation")
		case errors.Is(err, governance.ErrNoActiveOverride):
			return nil, apperrors.NewNotFoundError("no active emergency override")
		default:
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	if err := s.repo.Update(ctx, override); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Warnw("emergency override extended",
		"override_id", override.ID(),
		"expires_at", override.ExpiresAt(),
	)
	return s.statusFromOverride(override), nil
}

// Status reports the current override state.
func (s *EmergencyService) Status(ctx context.Context) (*dto.EmergencyStatusResponse, error) {
	active, override, err := s.IsActive(ctx)
	if err != nil {
		return nil, err
	}
	if !active {
		return &dto.EmergencyStatusResponse{Active: false}, nil
	}
	return s.statusFromOverride(override), nil
}

// History returns past and present overrides, newest first.
func (s *EmergencyService) History(ctx context.Context, limit int) (*dto.EmergencyHistoryResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	overrides, err := s.repo.History(ctx, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.EmergencyHistoryResponse{
		Overrides: make([]*dto.EmergencyHistoryEntry, 0, len(overrides)),
		Total:     len(overrides),
	}
	for _, o := range overrides {
		resp.Overrides = append(resp.Overrides, &dto.EmergencyHistoryEntry{
			ID:            o.ID(),
			Reason:        o.Reason(),
			ActivatedBy:   o.ActivatedBy(),
			ActivatedAt:   o.ActivatedAt(),
			ExpiresAt:     o.ExpiresAt(),
			Active:        o.IsEffective(time.Now().UTC()),
			DeactivatedBy: o.DeactivatedBy(),
			DeactivatedAt: o.DeactivatedAt(),
		})
	}
	return resp, nil
}

// SweepLapsed deactivates overrides whose expiry has passed. Returns the
// number of rows swept.
func (s *EmergencyService) SweepLapsed(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireLapsed(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.cache.Invalidate()
		s.logger.Infow("lapsed emergency overrides deactivated", "count", n)
	}
	return n, nil
}

func (s *EmergencyService) statusFromOverride(o *governance.EmergencyOverride) *dto.EmergencyStatusResponse {
	now := time.Now().UTC()
	activatedAt := o.ActivatedAt()
	expiresAt := o.ExpiresAt()
	return &dto.EmergencyStatusResponse{
		Active:           o.IsEffective(now),
		Reason:           o.Reason(),
		ActivatedBy:      o.ActivatedBy(),
		ActivatedAt:      &activatedAt,
		ExpiresAt:        &expiresAt,
		RemainingSeconds: int64(o.RemainingAt(now).Seconds()),
	}
}
