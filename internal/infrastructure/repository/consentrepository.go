package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// ConsentRepositoryImpl implements the governance.ConsentRepository interface
type ConsentRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewConsentRepository creates a new consent repository instance
func NewConsentRepository(db *gorm.DB, logger logger.Interface) governance.ConsentRepository {
	return &ConsentRepositoryImpl{db: db, logger: logger}
}

// Create persists a new consent request
func (r *ConsentRepositoryImpl) Create(ctx context.Context, req *governance.ConsentRequest) error {
	model, err := consentToModel(req)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create consent request",
			"request_id", req.RequestID(),
			"error", err)
		return fmt.Errorf("failed to create consent request: %w", err)
	}

	if err := req.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set consent request ID: %w", err)
	}
	return nil
}

// Update persists changes to an existing request
func (r *ConsentRepositoryImpl) Update(ctx context.Context, req *governance.ConsentRequest) error {
	model, err := consentToModel(req)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.ConsentRequestModel{}).
		Where("request_id = ?", req.RequestID()).
		Updates(map[string]any{
			"approvers":        model.Approvers,
			"rejected_by":      model.RejectedBy,
			"rejection_reason": model.RejectionReason,
			"status":           model.Status,
			"decided_at":       model.DecidedAt,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update consent request", "request_id", req.RequestID(), "error", result.Error)
		return fmt.Errorf("failed to update consent request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// FindByRequestID returns the request with the given public ID
func (r *ConsentRepositoryImpl) FindByRequestID(ctx context.Context, requestID string) (*governance.ConsentRequest, error) {
	var model models.ConsentRequestModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find consent request: %w", err)
	}
	return consentToDomain(&model)
}

// FindLatestDecided returns the most recently decided request of the type
func (r *ConsentRepositoryImpl) FindLatestDecided(ctx context.Context, consentType string) (*governance.ConsentRequest, error) {
	var model models.ConsentRequestModel
	if err := r.db.WithContext(ctx).
		Where("consent_type = ? AND decided_at IS NOT NULL", consentType).
		Order("decided_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find decided consent request: %w", err)
	}
	return consentToDomain(&model)
}

// List returns requests matching the filter, newest first
func (r *ConsentRepositoryImpl) List(ctx context.Context, consentType string, status *governance.ConsentStatus, limit int) ([]*governance.ConsentRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.ConsentRequestModel{})
	if consentType != "" {
		query = query.Where("consent_type = ?", consentType)
	}
	if status != nil {
		query = query.Where("status = ?", status.String())
	}

	var rows []models.ConsentRequestModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list consent requests: %w", err)
	}

	reqs := make([]*governance.ConsentRequest, len(rows))
	for i := range rows {
		req, err := consentToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		reqs[i] = req
	}
	return reqs, nil
}

// CountByStatus groups request counts by status
func (r *ConsentRepositoryImpl) CountByStatus(ctx context.Context) (map[governance.ConsentStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.ConsentRequestModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count consent requests: %w", err)
	}

	counts := make(map[governance.ConsentStatus]int64, len(rows))
	for _, row := range rows {
		counts[governance.ConsentStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// ExpirePending flips pending requests past their expiry
func (r *ConsentRepositoryImpl) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ConsentRequestModel{}).
		Where("status = ? AND expires_at < ?", governance.ConsentStatusPending.String(), now).
		Updates(map[string]any{
			"status":     governance.ConsentStatusExpired.String(),
			"decided_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to expire pending consent requests", "error", result.Error)
		return 0, fmt.Errorf("failed to expire pending requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func consentToModel(req *governance.ConsentRequest) (*models.ConsentRequestModel, error) {
	approvers := req.Approvers()
	if approvers == nil {
		approvers = []string{}
	}
	approversJSON, err := json.Marshal(approvers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approvers: %w", err)
	}

	return &models.ConsentRequestModel{
		RequestID:         req.RequestID(),
		ConsentType:       req.ConsentType(),
		RequestedBy:       req.RequestedBy(),
		Description:       req.Description(),
		RequiredApprovals: req.RequiredApprovals(),
		Approvers:         datatypes.JSON(approversJSON),
		RejectedBy:        req.RejectedBy(),
		RejectionReason:   req.RejectionReason(),
		Status:            req.Status().String(),
		ExpiresAt:         req.ExpiresAt(),
		DecidedAt:         req.DecidedAt(),
		CreatedAt:         req.CreatedAt(),
		UpdatedAt:         req.UpdatedAt(),
	}, nil
}

func consentToDomain(model *models.ConsentRequestModel) (*governance.ConsentRequest, error) {
	var approvers []string
	if len(model.Approvers) > 0 {
		if err := json.Unmarshal(model.Approvers, &approvers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal approvers for request %s: %w", model.RequestID, err)
		}
	}

	req, err := governance.ReconstructConsentRequest(
		model.ID,
		model.RequestID,
		model.ConsentType,
		model.RequestedBy,
		model.Description,
		model.RequiredApprovals,
		approvers,
		model.RejectedBy,
		model.RejectionReason,
		governance.ConsentStatus(model.Status),
		model.ExpiresAt,
		model.DecidedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct consent request %s: %w", model.RequestID, err)
	}
	return req, nil
}
