package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// DecisionLogRepositoryImpl implements the governance.DecisionLogRepository interface
type DecisionLogRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewDecisionLogRepository creates a new decision log repository instance
func NewDecisionLogRepository(db *gorm.DB, logger logger.Interface) governance.DecisionLogRepository {
	return &DecisionLogRepositoryImpl{db: db, logger: logger}
}

// Append adds one audit record
func (r *DecisionLogRepositoryImpl) Append(ctx context.Context, log *governance.DecisionLog) error {
	model := &models.DecisionLogModel{
		UserID:      log.UserID(),
		ToolName:    log.ToolName(),
		DeviceIP:    log.DeviceIP(),
		DeviceMAC:   log.DeviceMAC(),
		Allowed:     log.Allowed(),
		Source:      log.Source().String(),
		Reason:      log.Reason(),
		RuleName:    log.RuleName(),
		ElapsedMS:   log.ElapsedMS(),
		EvaluatedAt: log.EvaluatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to append decision log",
			"user_id", log.UserID(),
			"tool_name", log.ToolName(),
			"error", err)
		return fmt.Errorf("failed to append decision log: %w", err)
	}

	log.SetID(model.ID)
	return nil
}

// List returns audit records matching the filter, newest first, plus the
// total count before pagination.
func (r *DecisionLogRepositoryImpl) List(ctx context.Context, filter governance.DecisionLogFilter) ([]*governance.DecisionLog, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DecisionLogModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count decision logs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var rows []models.DecisionLogModel
	if err := query.Order("evaluated_at DESC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list decision logs: %w", err)
	}

	logs := make([]*governance.DecisionLog, len(rows))
	for i, row := range rows {
		logs[i] = governance.ReconstructDecisionLog(
			row.ID,
			row.UserID,
			row.ToolName,
			row.DeviceIP,
			row.DeviceMAC,
			row.Allowed,
			governance.DecisionSource(row.Source),
			row.Reason,
			row.RuleName,
			row.ElapsedMS,
			row.EvaluatedAt,
		)
	}
	return logs, total, nil
}

// Statistics aggregates audit records since the given time
func (r *DecisionLogRepositoryImpl) Statistics(ctx context.Context, since time.Time) (*governance.DecisionStatistics, error) {
	base := r.db.WithContext(ctx).Model(&models.DecisionLogModel{}).
		Where("evaluated_at >= ?", since)

	stats := &governance.DecisionStatistics{
		BySource:  make(map[governance.DecisionSource]int64),
		ByTool:    make(map[string]int64),
		WindowEnd: time.Now().UTC(),
	}

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("allowed = ?", true).Count(&stats.Allowed).Error; err != nil {
		return nil, fmt.Errorf("failed to count allowed decisions: %w", err)
	}
	stats.Denied = stats.Total - stats.Allowed

	var sourceRows []struct {
		Source string
		Count  int64
	}
	if err := base.Session(&gorm.Session{}).
		Select("source, COUNT(*) as count").
		Group("source").
		Scan(&sourceRows).Error; err != nil {
		return nil, fmt.Errorf("failed to group decisions by source: %w", err)
	}
	for _, row := range sourceRows {
		stats.BySource[governance.DecisionSource(row.Source)] = row.Count
	}

	var toolRows []struct {
		ToolName string
		Count    int64
	}
	if err := base.Session(&gorm.Session{}).
		Select("tool_name, COUNT(*) as count").
		Group("tool_name").
		Scan(&toolRows).Error; err != nil {
		return nil, fmt.Errorf("failed to group decisions by tool: %w", err)
	}
	for _, row := range toolRows {
		stats.ByTool[row.ToolName] = row.Count
	}

	var avg *float64
	if err := base.Session(&gorm.Session{}).
		Select("AVG(elapsed_ms)").
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average decision latency: %w", err)
	}
	if avg != nil {
		stats.AvgMS = *avg
	}

	return stats, nil
}

func (r *DecisionLogRepositoryImpl) applyFilter(query *gorm.DB, filter governance.DecisionLogFilter) *gorm.DB {
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ToolName != "" {
		query = query.Where("tool_name = ?", filter.ToolName)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source.String())
	}
	if filter.Allowed != nil {
		query = query.Where("allowed = ?", *filter.Allowed)
	}
	if filter.Since != nil {
		query = query.Where("evaluated_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("evaluated_at < ?", *filter.Until)
	}
	return query
}
