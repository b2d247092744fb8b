package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"medcare-admin/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

// accessModel matches a role against (resource, action, scope) rules. A rule with
// scope "own" only matches requests on resources owned by the caller.
const accessModel = `
[request_definition]
r = sub, obj, act, scope

[policy_definition]
p = sub, obj, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act) && (p.scope == "any" || p.scope == r.scope)
`

const (
	requestScopeOwn   = "own"
	requestScopeOther = "other"
)

// Resource identifies what an action is performed on. OwnerID is empty for
// collections and for resources nobody owns.
type Resource struct {
	Type    string
	OwnerID string
}

// Collection refers to a resource type as a whole
func Collection(resourceType string) Resource {
	return Resource{Type: resourceType}
}

// Owned refers to a single resource owned by ownerID
func Owned(resourceType, ownerID string) Resource {
	return Resource{Type: resourceType, OwnerID: ownerID}
}

// Authorizer decides whether an actor may perform an action on a resource
type Authorizer interface {
	CanPerform(actor *model.Principal, action string, resource Resource) bool
	HasPermission(actor *model.Principal, action, resourceType string) bool
}

// AuthorizationService is the casbin-backed Authorizer. Rules come from an
// AccessRuleStore and can be reloaded at runtime.
type AuthorizationService struct {
	mu       sync.RWMutex
	changes  sync.Mutex
	enforcer *casbin.Enforcer
	store    AccessRuleStore
	audit    AuditLog
}

// NewAuthorizationService creates an authorizer evaluating the given rules
func NewAuthorizationService(rules []model.AccessRule) (*AuthorizationService, error) {
	enforcer, err := newEnforcer(rules)
	if err != nil {
		return nil, err
	}
	return &AuthorizationService{enforcer: enforcer}, nil
}

// NewStoredAuthorizationService seeds the store with the default rules if empty and loads them
func NewStoredAuthorizationService(ctx context.Context, store AccessRuleStore, audit AuditLog) (*AuthorizationService, error) {
	seeded, err := store.SeedDefaults(ctx)
	if err != nil {
		return nil, err
	}
	if seeded > 0 {
		log.Printf("Seeded %d default access rules", seeded)
	}

	rules, err := store.LoadRules(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := NewAuthorizationService(rules)
	if err != nil {
		return nil, err
	}
	svc.store = store
	svc.audit = audit
	return svc, nil
}

func newEnforcer(rules []model.AccessRule) (*casbin.Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(accessModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize access enforcer: %w", err)
	}

	for _, rule := range rules {
		if _, err := enforcer.AddPolicy(rule.Role, rule.Resource, rule.Action, rule.Scope); err != nil {
			return nil, fmt.Errorf("failed to load access rule %s: %w", rule.ID, err)
		}
	}
	return enforcer, nil
}

// CanPerform reports whether actor may perform action on resource
func (s *AuthorizationService) CanPerform(actor *model.Principal, action string, resource Resource) bool {
	if actor == nil {
		return false
	}

	scope := requestScopeOther
	if resource.OwnerID != "" && resource.OwnerID == actor.ID {
		scope = requestScopeOwn
	}
	return s.enforce(actor.Role, resource.Type, action, scope)
}

// HasPermission reports whether actor may perform action on at least some
// resources of the type, counting rules limited to the actor's own resources
func (s *AuthorizationService) HasPermission(actor *model.Principal, action, resourceType string) bool {
	if actor == nil {
		return false
	}
	return s.enforce(actor.Role, resourceType, action, requestScopeOwn)
}

func (s *AuthorizationService) enforce(role, resourceType, action, scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(role, resourceType, action, scope)
	if err != nil {
		log.Printf("Access check failed for role=%s resource=%s action=%s: %v", role, resourceType, action, err)
		return false
	}
	return allowed
}

// Reload rebuilds the enforcer from the store
func (s *AuthorizationService) Reload(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("authorization service has no rule store")
	}
	rules, err := s.store.LoadRules(ctx)
	if err != nil {
		return err
	}

	enforcer, err := newEnforcer(rules)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.enforcer = enforcer
	s.mu.Unlock()
	return nil
}

// ListRules returns the stored rules
func (s *AuthorizationService) ListRules(ctx context.Context) ([]model.AccessRule, error) {
	if s.store == nil {
		return nil, fmt.Errorf("authorization service has no rule store")
	}
	return s.store.LoadRules(ctx)
}

// AddRule stores a rule and reloads the enforcer
func (s *AuthorizationService) AddRule(ctx context.Context, req *model.AccessRuleRequest, createdBy string) (*model.AccessRule, error) {
	if s.store == nil {
		return nil, fmt.Errorf("authorization service has no rule store")
	}

	s.changes.Lock()
	defer s.changes.Unlock()

	rule := &model.AccessRule{
		Role:      req.Role,
		Resource:  req.Resource,
		Action:    req.Action,
		Scope:     req.Scope,
		CreatedBy: createdBy,
	}
	if err := s.store.SaveRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditAccessRuleAdded,
		ResourceType: model.ResourceAccessRules,
		ResourceID:   rule.ID,
		After:        rule,
		ChangedBy:    createdBy,
	})
	return rule, nil
}

// DeleteRule removes a stored rule and reloads the enforcer. The last rule
// letting admins manage access rules cannot be removed.
func (s *AuthorizationService) DeleteRule(ctx context.Context, id, deletedBy string) error {
	if s.store == nil {
		return fmt.Errorf("authorization service has no rule store")
	}

	s.changes.Lock()
	defer s.changes.Unlock()

	if err := s.checkAdminKeepsRuleAccess(ctx, id); err != nil {
		return err
	}

	rule, err := s.store.DeleteRule(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Reload(ctx); err != nil {
		return err
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditAccessRuleDeleted,
		ResourceType: model.ResourceAccessRules,
		ResourceID:   rule.ID,
		Before:       rule,
		ChangedBy:    deletedBy,
	})
	return nil
}

// checkAdminKeepsRuleAccess fails when removing rule id would leave no admin
// rule granting manage on access rules
func (s *AuthorizationService) checkAdminKeepsRuleAccess(ctx context.Context, id string) error {
	rules, err := s.store.LoadRules(ctx)
	if err != nil {
		return err
	}

	remaining := make([]model.AccessRule, 0, len(rules))
	for _, rule := range rules {
		if rule.ID != id {
			remaining = append(remaining, rule)
		}
	}
	if len(remaining) == len(rules) {
		return nil
	}

	enforcer, err := newEnforcer(remaining)
	if err != nil {
		return err
	}
	allowed, err := enforcer.Enforce(model.RoleAdmin, model.ResourceAccessRules, model.ActionManage, requestScopeOther)
	if err != nil {
		return fmt.Errorf("failed to check remaining access rules: %w", err)
	}
	if !allowed {
		return validationError("rule %s is the last one letting admins manage access rules", id)
	}
	return nil
}
