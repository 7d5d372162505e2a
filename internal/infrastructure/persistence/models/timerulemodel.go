package models

import (
	"time"

	"gorm.io/datatypes"
)

// TimeRuleModel is the GORM model for time_rules table
type TimeRuleModel struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	Name        string         `gorm:"column:name;type:varchar(100);not null;uniqueIndex"`
	Description string         `gorm:"column:description;type:varchar(500)"`
	Action      string         `gorm:"column:action;type:varchar(20);not null"`
	StartTime   string         `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime     string         `gorm:"column:end_time;type:varchar(5);not null"`
	DaysOfWeek  datatypes.JSON `gorm:"column:days_of_week"`
	Timezone    string         `gorm:"column:timezone;type:varchar(64);not null;default:UTC"`
	Priority    int            `gorm:"column:priority;default:0"`
	Enabled     bool           `gorm:"column:enabled;default:true;index"`
	CreatedBy   string         `gorm:"column:created_by;type:varchar(100)"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (TimeRuleModel) TableName() string {
	return "time_rules"
}
