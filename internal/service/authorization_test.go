package service_test

import (
	"context"
	"testing"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAccessRules(t *testing.T) {
	authz, err := service.NewAuthorizationService(service.DefaultAccessRules())
	require.NoError(t, err)

	admin := &model.Principal{ID: "a1", Role: model.RoleAdmin}
	alice := &model.Principal{ID: "c1", Role: model.RoleCustomer}
	vendor := &model.Principal{ID: "s1", Role: model.RoleSupplier}

	tests := []struct {
		name     string
		actor    *model.Principal
		action   string
		resource service.Resource
		want     bool
	}{
		{"admin manages orders", admin, model.ActionManage, service.Collection(model.ResourceOrders), true},
		{"admin reads reports", admin, model.ActionRead, service.Collection(model.ResourceReports), true},
		{"customer creates own order", alice, model.ActionCreate, service.Owned(model.ResourceOrders, "c1"), true},
		{"customer reads own order", alice, model.ActionRead, service.Owned(model.ResourceOrders, "c1"), true},
		{"customer reads other order", alice, model.ActionRead, service.Owned(model.ResourceOrders, "c2"), false},
		{"customer lists all orders", alice, model.ActionRead, service.Collection(model.ResourceOrders), false},
		{"customer changes order status", alice, model.ActionManage, service.Collection(model.ResourceOrders), false},
		{"customer reads any product", alice, model.ActionRead, service.Collection(model.ResourceProducts), true},
		{"customer creates product", alice, model.ActionCreate, service.Collection(model.ResourceProducts), false},
		{"customer reads dashboard", alice, model.ActionRead, service.Collection(model.ResourceDashboard), false},
		{"supplier edits own catalog", vendor, model.ActionUpdate, service.Owned(model.ResourceSupplierProducts, "s1"), true},
		{"supplier edits other catalog", vendor, model.ActionUpdate, service.Owned(model.ResourceSupplierProducts, "s2"), false},
		{"supplier places order", vendor, model.ActionCreate, service.Owned(model.ResourceOrders, "s1"), false},
		{"anonymous", nil, model.ActionRead, service.Collection(model.ResourceProducts), false},
		{"unknown role", &model.Principal{ID: "x", Role: "guest"}, model.ActionRead, service.Collection(model.ResourceProducts), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authz.CanPerform(tt.actor, tt.action, tt.resource))
		})
	}

	assert.True(t, authz.HasPermission(alice, model.ActionRead, model.ResourceOrders))
	assert.False(t, authz.HasPermission(alice, model.ActionRead, model.ResourceUsers+"x"))
	assert.False(t, authz.HasPermission(nil, model.ActionRead, model.ResourceOrders))
}

func TestAccessRulesAtRuntime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.customer(t, "alice")
	dashboard := service.Collection(model.ResourceDashboard)

	rules, err := f.authz.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, len(service.DefaultAccessRules()))
	assert.False(t, f.authz.CanPerform(alice, model.ActionRead, dashboard))

	rule, err := f.authz.AddRule(ctx, &model.AccessRuleRequest{
		Role:     model.RoleCustomer,
		Resource: model.ResourceDashboard,
		Action:   model.ActionRead,
		Scope:    model.ScopeAny,
	}, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, f.authz.CanPerform(alice, model.ActionRead, dashboard))

	require.NoError(t, f.authz.DeleteRule(ctx, rule.ID, f.admin.ID))
	assert.False(t, f.authz.CanPerform(alice, model.ActionRead, dashboard))
	requireKind(t, f.authz.DeleteRule(ctx, rule.ID, f.admin.ID), service.KindNotFound)

	entries, err := f.audit.List(ctx, service.AuditFilters{ResourceType: model.ResourceAccessRules})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAdminRuleAccessCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rulesCollection := service.Collection(model.ResourceAccessRules)

	rules, err := f.authz.ListRules(ctx)
	require.NoError(t, err)
	var wildcard *model.AccessRule
	for i := range rules {
		if rules[i].Role == model.RoleAdmin && rules[i].Resource == "*" {
			wildcard = &rules[i]
		}
	}
	require.NotNil(t, wildcard)

	requireKind(t, f.authz.DeleteRule(ctx, wildcard.ID, f.admin.ID), service.KindValidation)
	assert.True(t, f.authz.CanPerform(f.admin, model.ActionManage, rulesCollection))

	explicit, err := f.authz.AddRule(ctx, &model.AccessRuleRequest{
		Role:     model.RoleAdmin,
		Resource: model.ResourceAccessRules,
		Action:   model.ActionManage,
		Scope:    model.ScopeAny,
	}, f.admin.ID)
	require.NoError(t, err)

	require.NoError(t, f.authz.DeleteRule(ctx, wildcard.ID, f.admin.ID))
	assert.True(t, f.authz.CanPerform(f.admin, model.ActionManage, rulesCollection))
	assert.False(t, f.authz.CanPerform(f.admin, model.ActionRead, service.Collection(model.ResourceReports)))

	requireKind(t, f.authz.DeleteRule(ctx, explicit.ID, f.admin.ID), service.KindValidation)
}

func TestStoredRulesSurviveRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.authz.AddRule(ctx, &model.AccessRuleRequest{
		Role:     model.RoleSupplier,
		Resource: model.ResourceReports,
		Action:   model.ActionRead,
		Scope:    model.ScopeAny,
	}, f.admin.ID)
	require.NoError(t, err)

	reloaded, err := service.NewStoredAuthorizationService(ctx, service.NewDatabaseAccessRuleStore(f.db), f.audit)
	require.NoError(t, err)

	vendor := &model.Principal{ID: "s1", Role: model.RoleSupplier}
	assert.True(t, reloaded.CanPerform(vendor, model.ActionRead, service.Collection(model.ResourceReports)))

	rules, err := reloaded.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, len(service.DefaultAccessRules())+1)
}
