package models

import "time"

// DecisionLogModel is the GORM model for decision_logs table. Rows are
// append-only; there is no update path.
type DecisionLogModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;type:varchar(100);index"`
	ToolName    string    `gorm:"column:tool_name;type:varchar(200);index"`
	DeviceIP    string    `gorm:"column:device_ip;type:varchar(45)"`
	DeviceMAC   string    `gorm:"column:device_mac;type:varchar(17)"`
	Allowed     bool      `gorm:"column:allowed;not null;index"`
	Source      string    `gorm:"column:source;type:varchar(30);not null;index"`
	Reason      string    `gorm:"column:reason;type:varchar(500)"`
	RuleName    string    `gorm:"column:rule_name;type:varchar(100)"`
	ElapsedMS   int64     `gorm:"column:elapsed_ms"`
	EvaluatedAt time.Time `gorm:"column:evaluated_at;not null;index"`
}

// TableName returns the table name for GORM
func (DecisionLogModel) TableName() string {
	return "decision_logs"
}
