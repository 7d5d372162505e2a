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
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// TimeRuleRepositoryImpl implements the governance.TimeRuleRepository interface
type TimeRuleRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTimeRuleRepository creates a new time rule repository instance
func NewTimeRuleRepository(db *gorm.DB, logger logger.Interface) governance.TimeRuleRepository {
	return &TimeRuleRepositoryImpl{db: db, logger: logger}
}

// Create persists a new time rule
func (r *TimeRuleRepositoryImpl) Create(ctx context.Context, rule *governance.TimeRule) error {
	model, err := timeRuleToModel(rule)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return governance.ErrDuplicateRuleName
		}
		r.logger.Errorw("failed to create time rule", "name", rule.Name(), "error", err)
		return fmt.Errorf("failed to create time rule: %w", err)
	}

	if err := rule.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set time rule ID: %w", err)
	}
	return nil
}

// Update persists changes to an existing rule
func (r *TimeRuleRepositoryImpl) Update(ctx context.Context, rule *governance.TimeRule) error {
	model, err := timeRuleToModel(rule)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.TimeRuleModel{}).
		Where("id = ?", rule.ID()).
		Updates(map[string]any{
			"name":         model.Name,
			"description":  model.Description,
			"action":       model.Action,
			"start_time":   model.StartTime,
			"end_time":     model.EndTime,
			"days_of_week": model.DaysOfWeek,
			"priority":     model.Priority,
			"enabled":      model.Enabled,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		if apperrors.IsDuplicateError(result.Error) {
			return governance.ErrDuplicateRuleName
		}
		r.logger.Errorw("failed to update time rule", "id", rule.ID(), "error", result.Error)
		return fmt.Errorf("failed to update time rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// FindByID returns the rule with the given ID
func (r *TimeRuleRepositoryImpl) FindByID(ctx context.Context, id uint) (*governance.TimeRule, error) {
	var model models.TimeRuleModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find time rule: %w", err)
	}
	return timeRuleToDomain(&model)
}

// FindByName returns the rule with the given name
func (r *TimeRuleRepositoryImpl) FindByName(ctx context.Context, name string) (*governance.TimeRule, error) {
	var model models.TimeRuleModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, governance.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find time rule: %w", err)
	}
	return timeRuleToDomain(&model)
}

// ListEnabled returns all enabled rules
func (r *TimeRuleRepositoryImpl) ListEnabled(ctx context.Context) ([]*governance.TimeRule, error) {
	var rows []models.TimeRuleModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list enabled time rules", "error", err)
		return nil, fmt.Errorf("failed to list time rules: %w", err)
	}
	return timeRuleRowsToDomain(rows)
}

// List returns all rules, optionally including disabled ones
func (r *TimeRuleRepositoryImpl) List(ctx context.Context, includeDisabled bool) ([]*governance.TimeRule, error) {
	query := r.db.WithContext(ctx).Model(&models.TimeRuleModel{})
	if !includeDisabled {
		query = query.Where("enabled = ?", true)
	}

	var rows []models.TimeRuleModel
	if err := query.Order("priority ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list time rules: %w", err)
	}
	return timeRuleRowsToDomain(rows)
}

func timeRuleToModel(rule *governance.TimeRule) (*models.TimeRuleModel, error) {
	days := make([]int, 0, len(rule.DaysOfWeek()))
	for _, d := range rule.DaysOfWeek() {
		days = append(days, int(d))
	}
	daysJSON, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal days of week: %w", err)
	}

	return &models.TimeRuleModel{
		Name:        rule.Name(),
		Description: rule.Description(),
		Action:      rule.Action().String(),
		StartTime:   rule.StartTime(),
		EndTime:     rule.EndTime(),
		DaysOfWeek:  datatypes.JSON(daysJSON),
		Timezone:    rule.Timezone(),
		Priority:    rule.Priority(),
		Enabled:     rule.Enabled(),
		CreatedBy:   rule.CreatedBy(),
		CreatedAt:   rule.CreatedAt(),
		UpdatedAt:   rule.UpdatedAt(),
	}, nil
}

func timeRuleToDomain(model *models.TimeRuleModel) (*governance.TimeRule, error) {
	var dayInts []int
	if len(model.DaysOfWeek) > 0 {
		if err := json.Unmarshal(model.DaysOfWeek, &dayInts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal days of week for rule %d: %w", model.ID, err)
		}
	}
	days := make([]time.Weekday, 0, len(dayInts))
	for _, d := range dayInts {
		days = append(days, time.Weekday(d))
	}

	rule, err := governance.ReconstructTimeRule(
		model.ID,
		model.Name,
		model.Description,
		governance.RuleAction(model.Action),
		model.StartTime,
		model.EndTime,
		days,
		model.Timezone,
		model.Priority,
		model.Enabled,
		model.CreatedBy,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct time rule %d: %w", model.ID, err)
	}
	return rule, nil
}

func timeRuleRowsToDomain(rows []models.TimeRuleModel) ([]*governance.TimeRule, error) {
	rules := make([]*governance.TimeRule, len(rows))
	for i := range rows {
		rule, err := timeRuleToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		rules[i] = rule
	}
	return rules, nil
}
