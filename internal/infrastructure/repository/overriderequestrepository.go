package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// OverrideRequestRepositoryImpl implements the governance.OverrideRepository interface
type OverrideRequestRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewOverrideRequestRepository creates a new override request repository instance
func NewOverrideRequestRepository(db *gorm.DB, logger logger.Interface) governance.OverrideRepository {
	return &OverrideRequestRepositoryImpl{db: db, logger: logger}
}

// Create persists a new override request
func (r *OverrideRequestRepositoryImpl) Create(ctx context.Context, req *governance.OverrideRequest) error {
	model := overrideToModel(req)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create override request",
			"request_id", req.RequestID(),
			"error", err)
		return fmt.Errorf("failed to create override request: %w", err)
	}

	if err := req.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set override request ID: %w", err)
	}
	return nil
}

// Update persists changes to an existing request
func (r *OverrideRequestRepositoryImpl) Update(ctx context.Context, req *governance.OverrideRequest) error {
	model := overrideToModel(req)

	result := r.db.WithContext(ctx).Model(&models.OverrideRequestModel{}).
		Where("request_id = ?", req.RequestID()).
		Updates(map[string]any{
			"status":       model.Status,
			"used_at":      model.UsedAt,
			"cancelled_by": model.CancelledBy,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update override request", "request_id", req.RequestID(), "error", result.Error)
		return fmt.Errorf("failed to update override request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// FindByRequestID returns the request with the given public ID
func (r *OverrideRequestRepositoryImpl) FindByRequestID(ctx context.Context, requestID string) (*governance.OverrideRequest, error) {
	var model models.OverrideRequestModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find override request: %w", err)
	}
	return overrideToDomain(&model)
}

// ConsumePending marks the request used with a conditional update so only
// one of two concurrent redemptions can win the row.
func (r *OverrideRequestRepositoryImpl) ConsumePending(ctx context.Context, requestID string, usedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.OverrideRequestModel{}).
		Where("request_id = ? AND status = ? AND expires_at > ?",
			requestID, governance.OverrideStatusPending.String(), usedAt).
		Updates(map[string]any{
			"status":     governance.OverrideStatusUsed.String(),
			"used_at":    usedAt,
			"updated_at": usedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to consume override request", "request_id", requestID, "error", result.Error)
		return fmt.Errorf("failed to consume override request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// List returns requests matching the filter, newest first
func (r *OverrideRequestRepositoryImpl) List(ctx context.Context, userID string, status *governance.OverrideStatus, limit int) ([]*governance.OverrideRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.OverrideRequestModel{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if status != nil {
		query = query.Where("status = ?", status.String())
	}

	var rows []models.OverrideRequestModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list override requests: %w", err)
	}

	reqs := make([]*governance.OverrideRequest, len(rows))
	for i := range rows {
		req, err := overrideToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		reqs[i] = req
	}
	return reqs, nil
}

// CountByStatus groups request counts by status
func (r *OverrideRequestRepositoryImpl) CountByStatus(ctx context.Context) (map[governance.OverrideStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.OverrideRequestModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count override requests: %w", err)
	}

	counts := make(map[governance.OverrideStatus]int64, len(rows))
	for _, row := range rows {
		counts[governance.OverrideStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// ExpirePending flips pending requests past their expiry
func (r *OverrideRequestRepositoryImpl) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.OverrideRequestModel{}).
		Where("status = ? AND expires_at < ?", governance.OverrideStatusPending.String(), now).
		Updates(map[string]any{
			"status":     governance.OverrideStatusExpired.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to expire pending override requests", "error", result.Error)
		return 0, fmt.Errorf("failed to expire pending requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func overrideToModel(req *governance.OverrideRequest) *models.OverrideRequestModel {
	return &models.OverrideRequestModel{
		RequestID:   req.RequestID(),
		UserID:      req.UserID(),
		ToolName:    req.ToolName(),
		Reason:      req.Reason(),
		PINHash:     req.PINHash().Encode(),
		Status:      req.Status().String(),
		ExpiresAt:   req.ExpiresAt(),
		UsedAt:      req.UsedAt(),
		CancelledBy: req.CancelledBy(),
		CreatedAt:   req.CreatedAt(),
		UpdatedAt:   req.UpdatedAt(),
	}
}

func overrideToDomain(model *models.OverrideRequestModel) (*governance.OverrideRequest, error) {
	pinHash, err := governance.ParsePINHash(model.PINHash)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PIN hash for request %s: %w", model.RequestID, err)
	}

	req, err := governance.ReconstructOverrideRequest(
		model.ID,
		model.RequestID,
		model.UserID,
		model.ToolName,
		model.Reason,
		pinHash,
		governance.OverrideStatus(model.Status),
		model.ExpiresAt,
		model.UsedAt,
		model.CancelledBy,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct override request %s: %w", model.RequestID, err)
	}
	return req, nil
}
