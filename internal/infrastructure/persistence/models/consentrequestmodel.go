package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConsentRequestModel is the GORM model for consent_requests table
type ConsentRequestModel struct {
	ID                uint           `gorm:"primaryKey;autoIncrement"`
	RequestID         string         `gorm:"column:request_id;type:varchar(36);not null;uniqueIndex"`
	ConsentType       string         `gorm:"column:consent_type;type:varchar(100);not null;index"`
	RequestedBy       string         `gorm:"column:requested_by;type:varchar(100);not null"`
	Description       string         `gorm:"column:description;type:varchar(500)"`
	RequiredApprovals int            `gorm:"column:required_approvals;not null;default:1"`
	Approvers         datatypes.JSON `gorm:"column:approvers"`
	RejectedBy        string         `gorm:"column:rejected_by;type:varchar(100)"`
	RejectionReason   string         `gorm:"column:rejection_reason;type:varchar(500)"`
	Status            string         `gorm:"column:status;type:varchar(20);not null;index"`
	ExpiresAt         time.Time      `gorm:"column:expires_at;not null;index"`
	DecidedAt         *time.Time     `gorm:"column:decided_at;index"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (ConsentRequestModel) TableName() string {
	return "consent_requests"
}
