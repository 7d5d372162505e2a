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

// EmergencyRepositoryImpl implements the governance.EmergencyRepository interface
type EmergencyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewEmergencyRepository creates a new emergency repository instance
func NewEmergencyRepository(db *gorm.DB, logger logger.Interface) governance.EmergencyRepository {
	return &EmergencyRepositoryImpl{db: db, logger: logger}
}

// CreateIfNoneActive inserts the override inside a transaction that first
// verifies no other effective row exists, so two concurrent activations
// cannot both succeed. Lapsed rows the sweep has not reached yet are
// deactivated here so they never block a new activation.
func (r *EmergencyRepositoryImpl) CreateIfNoneActive(ctx context.Context, override *governance.EmergencyOverride) error {
	model := emergencyToModel(override)
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmergencyOverrideModel{}).
			Where("active = ? AND expires_at <= ?", true, now).
			Updates(map[string]any{"active": false, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to retire lapsed overrides: %w", err)
		}

		var count int64
		if err := tx.Model(&models.EmergencyOverrideModel{}).
			Where("active = ? AND expires_at > ?", true, now).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check active overrides: %w", err)
		}
		if count > 0 {
			return governance.ErrAlreadyActive
		}
		return tx.Create(model).Error
	})
	if err != nil {
		if errors.Is(err, governance.ErrAlreadyActive) {
			return err
		}
		r.logger.Errorw("failed to create emergency override", "error", err)
		return fmt.Errorf("failed to create emergency override: %w", err)
	}

	if err := override.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set emergency override ID: %w", err)
	}
	return nil
}

// Update persists changes to an existing override
func (r *EmergencyRepositoryImpl) Update(ctx context.Context, override *governance.EmergencyOverride) error {
	model := emergencyToModel(override)

	result := r.db.WithContext(ctx).Model(&models.EmergencyOverrideModel{}).
		Where("id = ?", override.ID()).
		Updates(map[string]any{
			"expires_at":     model.ExpiresAt,
			"active":         model.Active,
			"deactivated_by": model.DeactivatedBy,
			"deactivated_at": model.DeactivatedAt,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update emergency override", "id", override.ID(), "error", result.Error)
		return fmt.Errorf("failed to update emergency override: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// FindByID returns the override with the given ID
func (r *EmergencyRepositoryImpl) FindByID(ctx context.Context, id uint) (*governance.EmergencyOverride, error) {
	var model models.EmergencyOverrideModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find emergency override: %w", err)
	}
	return emergencyToDomain(&model)
}

// FindActive returns the currently active override
func (r *EmergencyRepositoryImpl) FindActive(ctx context.Context) (*governance.EmergencyOverride, error) {
	var model models.EmergencyOverrideModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("activated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active emergency override: %w", err)
	}
	return emergencyToDomain(&model)
}

// History returns overrides newest first
func (r *EmergencyRepositoryImpl) History(ctx context.Context, limit int) ([]*governance.EmergencyOverride, error) {
	var rows []models.EmergencyOverrideModel
	if err := r.db.WithContext(ctx).
		Order("activated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list emergency overrides: %w", err)
	}

	overrides := make([]*governance.EmergencyOverride, len(rows))
	for i := range rows {
		o, err := emergencyToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		overrides[i] = o
	}
	return overrides, nil
}

// ExpireLapsed deactivates active rows past their expiry
func (r *EmergencyRepositoryImpl) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.EmergencyOverrideModel{}).
		Where("active = ? AND expires_at < ?", true, now).
		Updates(map[string]any{"active": false, "updated_at": now})
	if result.Error != nil {
		r.logger.Errorw("failed to expire lapsed emergency overrides", "error", result.Error)
		return 0, fmt.Errorf("failed to expire lapsed overrides: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func emergencyToModel(override *governance.EmergencyOverride) *models.EmergencyOverrideModel {
	return &models.EmergencyOverrideModel{
		Reason:        override.Reason(),
		ActivatedBy:   override.ActivatedBy(),
		ActivatedAt:   override.ActivatedAt(),
		ExpiresAt:     override.ExpiresAt(),
		Active:        override.Active(),
		DeactivatedBy: override.DeactivatedBy(),
		DeactivatedAt: override.DeactivatedAt(),
		CreatedAt:     override.CreatedAt(),
		UpdatedAt:     override.UpdatedAt(),
	}
}

func emergencyToDomain(model *models.EmergencyOverrideModel) (*governance.EmergencyOverride, error) {
	override, err := governance.ReconstructEmergencyOverride(
		model.ID,
		model.Reason,
		model.ActivatedBy,
		model.ActivatedAt,
		model.ExpiresAt,
		model.Active,
		model.DeactivatedBy,
		model.DeactivatedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct emergency override %d: %w", model.ID, err)
	}
	return override, nil
}
