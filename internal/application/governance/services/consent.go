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

// ConsentService manages multi-approver consent requests.
type ConsentService struct {
	repo   governance.ConsentRepository
	logger logger.Interface

	// Serializes the read-modify-write decision path so two concurrent
	// approvals cannot lose an approver or double-stamp the threshold.
	mu sync.Mutex
}

// NewConsentService creates a ConsentService.
func NewConsentService(repo governance.ConsentRepository, log logger.Interface) *ConsentService {
	return &ConsentService{repo: repo, logger: log}
}

// Create opens a pending consent request. At most one open request per
// consent type: a second request while one is still pending is a conflict.
func (s *ConsentService) Create(ctx context.Context, req dto.CreateConsentRequest) (*dto.ConsentResponse, error) {
	ttl := time.Duration(req.TTLHours) * time.Hour
	consent, err := governance.NewConsentRequest(req.ConsentType, req.RequestedBy, req.Description, req.RequiredApprovals, ttl)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	pending := governance.ConsentStatusPending
	open, err := s.repo.List(ctx, req.ConsentType, &pending, 10)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, existing := range open {
		if existing.IsOpen(now) {
			return nil, apperrors.NewConflictError("a pending consent request of this type already exists")
		}
	}

	if err := s.repo.Create(ctx, consent); err != nil {
		return nil, err
	}

	s.logger.Infow("consent request created",
		"request_id", consent.RequestID(),
		"consent_type", consent.ConsentType(),
		"requested_by", consent.RequestedBy(),
		"required_approvals", consent.RequiredApprovals(),
	)
	return consentToDTO(consent), nil
}

// Decide records one approver's approval or rejection.
func (s *ConsentService) Decide(ctx context.Context, requestID string, req dto.DecideConsentRequest) (*dto.ConsentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	consent, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("consent request not found")
		}
		return nil, err
	}

	now := time.Now().UTC()
	if req.Approve {
		err = consent.Approve(req.DecidedBy, now)
	} else {
		err = consent.Reject(req.DecidedBy, req.Reason, now)
	}
	if err != nil {
		switch {
		case errors.Is(err, governance.ErrSelfApprovalNotAllowed):
			return nil, apperrors.NewForbiddenError("requester cannot approve their own consent request")
		case errors.Is(err, governance.ErrAlreadyTerminal):
			return nil, apperrors.NewConflictError("consent request is already decided")
		case errors.Is(err, governance.ErrConsentExpired):
			// Persist the lazy expiry so later reads agree.
			if consent.MarkExpired(now) {
				if uerr := s.repo.Update(ctx, consent); uerr != nil {
					s.logger.Errorw("failed to persist consent expiry", "request_id", requestID, "error", uerr)
				}
			}
			return nil, apperrors.NewConflictError("consent request has expired")
		default:
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	if err := s.repo.Update(ctx, consent); err != nil {
		return nil, err
	}

	s.logger.Infow("consent decision recorded",
		"request_id", requestID,
		"decided_by", req.DecidedBy,
		"approve", req.Approve,
		"status", consent.Status(),
	)
	return consentToDTO(consent), nil
}

// Cancel withdraws a pending request. Only the requester may cancel.
func (s *ConsentService) Cancel(ctx context.Context, requestID string, req dto.CancelConsentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	consent, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return apperrors.NewNotFoundError("consent request not found")
		}
		return err
	}

	if err := consent.Cancel(req.CancelledBy, time.Now().UTC()); err != nil {
		if errors.Is(err, governance.ErrAlreadyTerminal) {
			return apperrors.NewConflictError("consent request is already decided")
		}
		return apperrors.NewForbiddenError(err.Error())
	}
	if err := s.repo.Update(ctx, consent); err != nil {
		return err
	}

	s.logger.Infow("consent request cancelled",
		"request_id", requestID,
		"cancelled_by", req.CancelledBy,
	)
	return nil
}

// Get fetches a single consent request. A pending request past its expiry
// is surfaced as expired even if the sweep has not reached it yet.
func (s *ConsentService) Get(ctx context.Context, requestID string) (*dto.ConsentResponse, error) {
	consent, err := s.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("consent request not found")
		}
		return nil, err
	}

	if consent.MarkExpired(time.Now().UTC()) {
		if uerr := s.repo.Update(ctx, consent); uerr != nil {
			s.logger.Errorw("failed to persist consent expiry", "request_id", requestID, "error", uerr)
		}
	}
	return consentToDTO(consent), nil
}

// IsApproved reports whether the most recent decided request of the given
// type was approved. Pending requests never count.
func (s *ConsentService) IsApproved(ctx context.Context, consentType string) (*dto.ConsentStateResponse, error) {
	if consentType == "" {
		return nil, apperrors.NewValidationError("consent_type is required")
	}

	latest, err := s.repo.FindLatestDecided(ctx, consentType)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return &dto.ConsentStateResponse{ConsentType: consentType, Approved: false}, nil
		}
		return nil, err
	}

	return &dto.ConsentStateResponse{
		ConsentType: consentType,
		Approved:    latest.Status() == governance.ConsentStatusApproved,
		RequestID:   latest.RequestID(),
		DecidedAt:   latest.DecidedAt(),
	}, nil
}

// List returns consent requests matching the filter.
func (s *ConsentService) List(ctx context.Context, req dto.ListConsentsRequest) (*dto.ListConsentsResponse, error) {
	var status *governance.ConsentStatus
	if req.Status != nil && *req.Status != "" {
		st := governance.ConsentStatus(*req.Status)
		if !st.IsValid() {
			return nil, apperrors.NewValidationError("invalid consent status")
		}
		status = &st
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	consents, err := s.repo.List(ctx, req.ConsentType, status, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListConsentsResponse{
		Consents: make([]*dto.ConsentResponse, 0, len(consents)),
		Total:    len(consents),
	}
	now := time.Now().UTC()
	for _, c := range consents {
		// Lazy expiry: surface pending rows past their expiry as expired
		// without waiting for the sweep.
		c.MarkExpired(now)
		resp.Consents = append(resp.Consents, consentToDTO(c))
	}
	return resp, nil
}

// Stats counts consent requests by status.
func (s *ConsentService) Stats(ctx context.Context) (*dto.ConsentStatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.ConsentStatsResponse{ByStatus: make(map[string]int64, len(counts))}
	for status, n := range counts {
		resp.ByStatus[status.String()] = n
		resp.Total += n
	}
	return resp, nil
}

// SweepExpired flips pending requests past their expiry. Returns the
// number of rows swept.
func (s *ConsentService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("expired consent requests swept", "count", n)
	}
	return n, nil
}

func consentToDTO(c *governance.ConsentRequest) *dto.ConsentResponse {
	approvers := c.Approvers()
	if approvers == nil {
		approvers = []string{}
	}
	return &dto.ConsentResponse{
		RequestID:         c.RequestID(),
		ConsentType:       c.ConsentType(),
		RequestedBy:       c.RequestedBy(),
		Description:       c.Description(),
		RequiredApprovals: c.RequiredApprovals(),
		Approvers:         approvers,
		RejectedBy:        c.RejectedBy(),
		RejectionReason:   c.RejectionReason(),
		Status:            c.Status().String(),
		ExpiresAt:         c.ExpiresAt(),
		DecidedAt:         c.DecidedAt(),
		CreatedAt:         c.CreatedAt(),
	}
}
