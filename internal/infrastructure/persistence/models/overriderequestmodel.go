package models

import "time"

// OverrideRequestModel is the GORM model for override_requests table
type OverrideRequestModel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	RequestID   string     `gorm:"column:request_id;type:varchar(36);not null;uniqueIndex"`
	UserID      string     `gorm:"column:user_id;type:varchar(100);not null;index"`
	ToolName    string     `gorm:"column:tool_name;type:varchar(200);not null"`
	Reason      string     `gorm:"column:reason;type:varchar(500);not null"`
	PINHash     string     `gorm:"column:pin_hash;type:varchar(128);not null"`
	Status      string     `gorm:"column:status;type:varchar(20);not null;index"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null;index"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	CancelledBy string     `gorm:"column:cancelled_by;type:varchar(100)"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (OverrideRequestModel) TableName() string {
	return "override_requests"
}
