package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions
const (
	AuditOrderCreated      = "order_created"
	AuditOrderStatus       = "order_status_change"
	AuditOrderDeleted      = "order_deleted"
	AuditStockAdjusted     = "stock_adjusted"
	AuditProductVisibility = "product_visibility"
	AuditProductTransfer   = "product_transfer"
	AuditPaymentStatus     = "payment_status_change"
	AuditAccessRuleAdded   = "access_rule_added"
	AuditAccessRuleDeleted = "access_rule_deleted"
)

// AuditEntry is an audit log record of a change made through the API
type AuditEntry struct {
	ID           string      `json:"id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resourceType"`
	ResourceID   string      `json:"resourceId"`
	Before       interface{} `json:"before,omitempty"`
	After        interface{} `json:"after,omitempty"`
	ChangedBy    string      `json:"changedBy"`
	ChangedAt    time.Time   `json:"changedAt"`
	Reason       string      `json:"reason,omitempty"`
}

// AuditEntryDB is the database model for AuditEntry
type AuditEntryDB struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Action       string    `gorm:"type:varchar(50);not null;index"`
	ResourceType string    `gorm:"type:varchar(50);not null;index"`
	ResourceID   string    `gorm:"type:varchar(36);not null;index"`
	Before       *string   `gorm:"type:text"`
	After        *string   `gorm:"type:text"`
	ChangedBy    string    `gorm:"type:varchar(36);not null;index"`
	ChangedAt    time.Time `gorm:"autoCreateTime;index"`
	Reason       string    `gorm:"type:text"`
}

func (AuditEntryDB) TableName() string {
	return "audit_entries"
}

// BeforeCreate assigns a UUID when none is set
func (a *AuditEntryDB) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
