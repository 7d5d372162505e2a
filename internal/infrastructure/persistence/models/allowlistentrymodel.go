package models

import "time"

// AllowlistEntryModel is the GORM model for allowlist_entries table
type AllowlistEntryModel struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	EntryType  string     `gorm:"column:entry_type;type:varchar(20);not null;uniqueIndex:idx_allowlist_identity,priority:1"`
	Identifier string     `gorm:"column:identifier;type:varchar(100);not null;uniqueIndex:idx_allowlist_identity,priority:2"`
	Name       string     `gorm:"column:name;type:varchar(255)"`
	Reason     string     `gorm:"column:reason;type:varchar(500)"`
	CreatedBy  string     `gorm:"column:created_by;type:varchar(100)"`
	Active     bool       `gorm:"column:active;default:true;index"`
	ExpiresAt  *time.Time `gorm:"column:expires_at;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (AllowlistEntryModel) TableName() string {
	return "allowlist_entries"
}
