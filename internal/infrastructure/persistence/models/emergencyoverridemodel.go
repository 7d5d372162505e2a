package models

import "time"

// EmergencyOverrideModel is the GORM model for emergency_overrides table
type EmergencyOverrideModel struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	Reason        string     `gorm:"column:reason;type:varchar(500);not null"`
	ActivatedBy   string     `gorm:"column:activated_by;type:varchar(100);not null"`
	ActivatedAt   time.Time  `gorm:"column:activated_at;not null"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null;index"`
	Active        bool       `gorm:"column:active;default:true;index"`
	DeactivatedBy string     `gorm:"column:deactivated_by;type:varchar(100)"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (EmergencyOverrideModel) TableName() string {
	return "emergency_overrides"
}
