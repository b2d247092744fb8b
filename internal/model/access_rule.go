package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Access rule scopes. ScopeOwn only matches resources owned by the caller.
const (
	ScopeAny = "any"
	ScopeOwn = "own"
)

// Resources guarded by access rules
const (
	ResourceUsers            = "users"
	ResourceSuppliers        = "suppliers"
	ResourceSupplierProducts = "supplier_products"
	ResourceProducts         = "products"
	ResourceOrders           = "orders"
	ResourcePayments         = "payments"
	ResourceReports          = "reports"
	ResourceDashboard        = "dashboard"
	ResourceAudit            = "audit"
	ResourceAccessRules      = "access_rules"
)

// Actions
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
)

// AccessRule grants a role an action on a resource type
type AccessRule struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null;index"`
	Resource  string    `json:"resource" gorm:"type:varchar(50);not null;index"`
	Action    string    `json:"action" gorm:"type:varchar(20);not null"`
	Scope     string    `json:"scope" gorm:"type:varchar(10);not null;default:'any'"`
	CreatedBy string    `json:"createdBy" gorm:"type:varchar(36);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (r *AccessRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// AccessRuleRequest is the body of POST /access-rules
type AccessRuleRequest struct {
	Role     string `json:"role" binding:"required,oneof=customer admin supplier"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Scope    string `json:"scope" binding:"required,oneof=any own"`
}
