package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records one admin mutation of an item.
type AuditLog struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	ItemType  string         `gorm:"type:varchar(64);not null;index:idx_audit_item" json:"item_type"`
	ItemID    int64          `gorm:"not null;index:idx_audit_item" json:"item_id"`
	Action    string         `gorm:"type:varchar(32);not null;index" json:"action"`
	Username  string         `json:"username"`
	Result    string         `gorm:"type:varchar(16);not null" json:"result"`
	Metadata  datatypes.JSON `json:"metadata"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a UUID when none is set.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
