package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medcare-admin/internal/model"

	"gorm.io/gorm"
)

// AccessRuleStore persists the access rules loaded into the authorizer
type AccessRuleStore interface {
	LoadRules(ctx context.Context) ([]model.AccessRule, error)
	SaveRule(ctx context.Context, rule *model.AccessRule) error
	DeleteRule(ctx context.Context, id string) (*model.AccessRule, error)
	SeedDefaults(ctx context.Context) (int, error)
}

// DatabaseAccessRuleStore is the database-backed access rule store
type DatabaseAccessRuleStore struct {
	db *gorm.DB
}

// NewDatabaseAccessRuleStore creates a new database-backed access rule store
func NewDatabaseAccessRuleStore(db *gorm.DB) *DatabaseAccessRuleStore {
	return &DatabaseAccessRuleStore{db: db}
}

// LoadRules returns every stored rule
func (s *DatabaseAccessRuleStore) LoadRules(ctx context.Context) ([]model.AccessRule, error) {
	var rules []model.AccessRule
	if err := s.db.WithContext(ctx).Order("role, resource, action").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to load access rules from database: %w", err)
	}
	return rules, nil
}

// SaveRule stores a rule unless an identical one exists
func (s *DatabaseAccessRuleStore) SaveRule(ctx context.Context, rule *model.AccessRule) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.AccessRule{}).
		Where("role = ? AND resource = ? AND action = ? AND scope = ?", rule.Role, rule.Resource, rule.Action, rule.Scope).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check existing access rule: %w", err)
	}
	if count > 0 {
		return conflictError("access rule already exists: %s %s %s (%s)", rule.Role, rule.Action, rule.Resource, rule.Scope)
	}

	if rule.CreatedBy == "" {
		rule.CreatedBy = "system"
	}
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to save access rule to database: %w", err)
	}
	return nil
}

// DeleteRule removes a rule and returns it
func (s *DatabaseAccessRuleStore) DeleteRule(ctx context.Context, id string) (*model.AccessRule, error) {
	var rule model.AccessRule
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("access rule not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get access rule: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&rule).Error; err != nil {
		return nil, fmt.Errorf("failed to delete access rule from database: %w", err)
	}
	return &rule, nil
}

// SeedDefaults stores DefaultAccessRules when the table is empty and returns how many were stored
func (s *DatabaseAccessRuleStore) SeedDefaults(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.AccessRule{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count access rules: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	rules := DefaultAccessRules()
	now := time.Now()
	for i := range rules {
		rules[i].CreatedAt = now
		rules[i].UpdatedAt = now
	}
	if err := s.db.WithContext(ctx).Create(&rules).Error; err != nil {
		return 0, fmt.Errorf("failed to seed access rules: %w", err)
	}
	return len(rules), nil
}

// DefaultAccessRules is the built-in permission table
func DefaultAccessRules() []model.AccessRule {
	rule := func(role, resource, action, scope string) model.AccessRule {
		return model.AccessRule{Role: role, Resource: resource, Action: action, Scope: scope, CreatedBy: "system"}
	}

	return []model.AccessRule{
		rule(model.RoleAdmin, "*", "*", model.ScopeAny),

		rule(model.RoleCustomer, model.ResourceUsers, model.ActionRead, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourceUsers, model.ActionUpdate, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourceUsers, model.ActionDelete, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourceProducts, model.ActionRead, model.ScopeAny),
		rule(model.RoleCustomer, model.ResourceOrders, model.ActionCreate, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourceOrders, model.ActionRead, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourceOrders, model.ActionUpdate, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourceOrders, model.ActionDelete, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourcePayments, model.ActionCreate, model.ScopeOwn),
		rule(model.RoleCustomer, model.ResourcePayments, model.ActionRead, model.ScopeOwn),

		rule(model.RoleSupplier, model.ResourceSuppliers, model.ActionRead, model.ScopeOwn),
		rule(model.RoleSupplier, model.ResourceSuppliers, model.ActionUpdate, model.ScopeOwn),
		rule(model.RoleSupplier, model.ResourceSupplierProducts, model.ActionCreate, model.ScopeOwn),
		rule(model.RoleSupplier, model.ResourceSupplierProducts, model.ActionUpdate, model.ScopeOwn),
		rule(model.RoleSupplier, model.ResourceSupplierProducts, model.ActionDelete, model.ScopeOwn),
		rule(model.RoleSupplier, model.ResourceProducts, model.ActionRead, model.ScopeAny),
	}
}
