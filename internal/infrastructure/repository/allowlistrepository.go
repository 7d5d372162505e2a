package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// AllowlistRepositoryImpl implements the governance.AllowlistRepository interface
type AllowlistRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewAllowlistRepository creates a new allowlist repository instance
func NewAllowlistRepository(db *gorm.DB, logger logger.Interface) governance.AllowlistRepository {
	return &AllowlistRepositoryImpl{db: db, logger: logger}
}

// Create persists a new allowlist entry
func (r *AllowlistRepositoryImpl) Create(ctx context.Context, entry *governance.AllowlistEntry) error {
	model := allowlistToModel(entry)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return err
		}
		r.logger.Errorw("failed to create allowlist entry",
			"identifier", entry.Identifier(),
			"entry_type", entry.EntryType(),
			"error", err)
		return fmt.Errorf("failed to create allowlist entry: %w", err)
	}

	if err := entry.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set allowlist entry ID: %w", err)
	}
	return nil
}

// Update persists changes to an existing entry
func (r *AllowlistRepositoryImpl) Update(ctx context.Context, entry *governance.AllowlistEntry) error {
	model := allowlistToModel(entry)
	model.ID = entry.ID()

	result := r.db.WithContext(ctx).Model(&models.AllowlistEntryModel{}).
		Where("id = ?", entry.ID()).
		Updates(map[string]any{
			"name":       model.Name,
			"reason":     model.Reason,
			"active":     model.Active,
			"expires_at": model.ExpiresAt,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update allowlist entry", "id", entry.ID(), "error", result.Error)
		return fmt.Errorf("failed to update allowlist entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// FindByID returns the entry with the given ID
func (r *AllowlistRepositoryImpl) FindByID(ctx context.Context, id uint) (*governance.AllowlistEntry, error) {
	var model models.AllowlistEntryModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find allowlist entry: %w", err)
	}
	return allowlistToDomain(&model)
}

// FindByIdentifier returns the entry matching type and identifier
func (r *AllowlistRepositoryImpl) FindByIdentifier(ctx context.Context, entryType governance.EntryType, identifier string) (*governance.AllowlistEntry, error) {
	var model models.AllowlistEntryModel
	if err := r.db.WithContext(ctx).
		Where("entry_type = ? AND identifier = ?", string(entryType), identifier).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find allowlist entry: %w", err)
	}
	return allowlistToDomain(&model)
}

// ListActive returns all active entries
func (r *AllowlistRepositoryImpl) ListActive(ctx context.Context) ([]*governance.AllowlistEntry, error) {
	var rows []models.AllowlistEntryModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list active allowlist entries", "error", err)
		return nil, fmt.Errorf("failed to list allowlist entries: %w", err)
	}
	return allowlistRowsToDomain(rows)
}

// List returns entries matching the filter
func (r *AllowlistRepositoryImpl) List(ctx context.Context, entryType *governance.EntryType, includeInactive bool) ([]*governance.AllowlistEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.AllowlistEntryModel{})
	if entryType != nil {
		query = query.Where("entry_type = ?", string(*entryType))
	}
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var rows []models.AllowlistEntryModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list allowlist entries: %w", err)
	}
	return allowlistRowsToDomain(rows)
}

// CountActive returns the number of active entries
func (r *AllowlistRepositoryImpl) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AllowlistEntryModel{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count allowlist entries: %w", err)
	}
	return count, nil
}

// DeactivateExpired flips active entries past their expiry
func (r *AllowlistRepositoryImpl) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.AllowlistEntryModel{}).
		Where("active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Updates(map[string]any{"active": false, "updated_at": now})
	if result.Error != nil {
		r.logger.Errorw("failed to deactivate expired allowlist entries", "error", result.Error)
		return 0, fmt.Errorf("failed to deactivate expired entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func allowlistToModel(entry *governance.AllowlistEntry) *models.AllowlistEntryModel {
	return &models.AllowlistEntryModel{
		EntryType:  entry.EntryType().String(),
		Identifier: entry.Identifier(),
		Name:       entry.Name(),
		Reason:     entry.Reason(),
		CreatedBy:  entry.CreatedBy(),
		Active:     entry.Active(),
		ExpiresAt:  entry.ExpiresAt(),
		CreatedAt:  entry.CreatedAt(),
		UpdatedAt:  entry.UpdatedAt(),
	}
}

func allowlistToDomain(model *models.AllowlistEntryModel) (*governance.AllowlistEntry, error) {
	entry, err := governance.ReconstructAllowlistEntry(
		model.ID,
		model.Identifier,
		governance.EntryType(model.EntryType),
		model.Name,
		model.Reason,
		model.CreatedBy,
		model.Active,
		model.ExpiresAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct allowlist entry %d: %w", model.ID, err)
	}
	return entry, nil
}

func allowlistRowsToDomain(rows []models.AllowlistEntryModel) ([]*governance.AllowlistEntry, error) {
	entries := make([]*governance.AllowlistEntry, len(rows))
	for i := range rows {
		entry, err := allowlistToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}
	return entries, nil
}
