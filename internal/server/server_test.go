package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medcare-admin/internal/config"
	"medcare-admin/internal/infrastructure"
	"medcare-admin/internal/model"
	"medcare-admin/internal/server"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) (*apiClient, *server.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Addr: ":0", Environment: "test", CORSOrigins: []string{"*"}},
		Database: config.DatabaseConfig{
			Driver:   "sqlite",
			DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			LogLevel: "silent",
		},
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost},
		Inventory: config.InventoryConfig{LowStockThreshold: 10, ExpiryWindowDays: 30},
	}

	db, err := infrastructure.ConnectDatabase(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, infrastructure.MigrateAllSchemas(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	services, err := server.NewServices(context.Background(), cfg, db)
	require.NoError(t, err)
	srv, err := server.NewServer(cfg, db, services)
	require.NoError(t, err)

	return &apiClient{t: t, handler: srv.Handler()}, services
}

// do sends a JSON request and decodes the JSON response into a map
func (a *apiClient) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()

	rec := a.raw(method, path, token, body)
	var out map[string]interface{}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func (a *apiClient) raw(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *apiClient) login(email, password string) string {
	a.t.Helper()

	code, body := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func adminToken(t *testing.T, api *apiClient, services *server.Services) string {
	t.Helper()

	_, err := services.Users.CreateUser(context.Background(), &service.CreateUserRequest{
		Name:     "Admin",
		Email:    "admin@medcare.local",
		Password: "admin123",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)
	return api.login("admin@medcare.local", "admin123")
}

func customerToken(t *testing.T, api *apiClient, name string) string {
	t.Helper()

	code, body := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func field(t *testing.T, body map[string]interface{}, key string) map[string]interface{} {
	t.Helper()

	v, ok := body[key].(map[string]interface{})
	require.True(t, ok, "missing %q in %v", key, body)
	return v
}

func TestHealth(t *testing.T) {
	api, _ := newTestServer(t)

	code, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, server.Version, body["version"])
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api, services := newTestServer(t)
	admin := adminToken(t, api, services)
	alice := customerToken(t, api, "alice")

	code, body := api.do(http.MethodPost, "/api/products", admin, gin.H{
		"name":                 "Insulin Pen",
		"price":                20.0,
		"quantity":             5,
		"category":             model.CategoryPrescriptionMedicine,
		"expiryDate":           time.Now().AddDate(1, 0, 0).Format(time.RFC3339),
		"prescriptionRequired": true,
	})
	require.Equal(t, http.StatusCreated, code, body)
	productID := field(t, body, "product")["id"].(string)

	order := gin.H{
		"items":        []gin.H{{"productId": productID, "quantity": 5, "prescriptionProvided": true}},
		"shipping":     gin.H{"fullName": "Alice", "address": "1 Test Street", "city": "Springfield"},
		"contactPhone": "+1-555-0100",
	}
	code, body = api.do(http.MethodPost, "/api/orders", alice, order)
	require.Equal(t, http.StatusCreated, code, body)
	placed := field(t, body, "order")
	assert.Equal(t, "Pending", placed["status"])
	assert.Equal(t, 100.0, placed["totalAmount"])
	orderID := placed["id"].(string)

	code, body = api.do(http.MethodGet, "/api/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, code)
	product := field(t, body, "product")
	assert.Equal(t, 0.0, product["quantity"])
	assert.Equal(t, true, product["outOfStock"])

	// the shelf is empty now
	code, body = api.do(http.MethodPost, "/api/orders", alice, order)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, _ = api.do(http.MethodPut, "/api/orders/"+orderID+"/status", alice, gin.H{"status": "Cancelled"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodPut, "/api/orders/"+orderID+"/status", admin, gin.H{"status": "Refunded"})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = api.do(http.MethodPut, "/api/orders/"+orderID+"/status", admin, gin.H{"status": "Cancelled"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Cancelled", field(t, body, "order")["status"])

	code, body = api.do(http.MethodGet, "/api/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, code)
	product = field(t, body, "product")
	assert.Equal(t, 5.0, product["quantity"])
	assert.Equal(t, false, product["outOfStock"])

	code, _ = api.do(http.MethodDelete, "/api/orders/"+orderID, alice, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthenticationRequired(t *testing.T) {
	api, _ := newTestServer(t)

	code, body := api.do(http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = api.do(http.MethodGet, "/api/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminRoutesForbiddenToCustomers(t *testing.T) {
	api, _ := newTestServer(t)
	alice := customerToken(t, api, "alice")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/users"},
		{http.MethodGet, "/api/suppliers"},
		{http.MethodGet, "/api/products/admin/all"},
		{http.MethodGet, "/api/products/admin/low-stock"},
		{http.MethodPost, "/api/products"},
		{http.MethodGet, "/api/reports/inventory"},
		{http.MethodGet, "/api/dashboard/stats"},
		{http.MethodGet, "/api/audit"},
		{http.MethodGet, "/api/access-rules"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			code, body := api.do(route.method, route.path, alice, gin.H{})
			assert.Equal(t, http.StatusForbidden, code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestValidationErrors(t *testing.T) {
	api, services := newTestServer(t)
	admin := adminToken(t, api, services)

	code, body := api.do(http.MethodPost, "/api/products", admin, gin.H{
		"name":       "Mystery",
		"price":      1,
		"category":   "snacks",
		"expiryDate": time.Now().AddDate(1, 0, 0).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "Category")

	code, _ = api.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "x", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, code)

	customerToken(t, api, "alice")
	code, _ = api.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "alice", "email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestSupplierTransferOverHTTP(t *testing.T) {
	api, services := newTestServer(t)
	admin := adminToken(t, api, services)

	code, body := api.do(http.MethodPost, "/api/suppliers/register", "", gin.H{
		"name":        "Sam",
		"email":       "sam@pharmaco.example.com",
		"password":    "supplier123",
		"companyName": "PharmaCo",
	})
	require.Equal(t, http.StatusCreated, code, body)
	supplierToken := body["token"].(string)
	supplierID := field(t, body, "supplier")["id"].(string)

	code, body = api.do(http.MethodPost, "/api/suppliers/"+supplierID+"/products", supplierToken, gin.H{
		"name":        "Gauze Roll",
		"category":    model.CategoryFirstAid,
		"buyingPrice": 100,
	})
	require.Equal(t, http.StatusCreated, code, body)
	entry := field(t, body, "product")
	assert.Equal(t, "115.00", entry["sellingPrice"])

	transfer := gin.H{"quantity": 12, "expiryDate": time.Now().AddDate(1, 0, 0).Format(time.RFC3339)}
	path := fmt.Sprintf("/api/suppliers/%s/products/%s/transfer", supplierID, entry["id"])

	code, _ = api.do(http.MethodPost, path, supplierToken, transfer)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodPost, path, admin, transfer)
	require.Equal(t, http.StatusOK, code, body)
	product := field(t, body, "product")
	assert.Equal(t, 115.0, product["price"])
	assert.Equal(t, 12.0, product["quantity"])

	code, _ = api.do(http.MethodDelete, "/api/suppliers/"+supplierID, admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodGet, "/api/suppliers/"+supplierID, supplierToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestReportsArePDF(t *testing.T) {
	api, services := newTestServer(t)
	admin := adminToken(t, api, services)

	for _, kind := range []string{"inventory", "orders", "suppliers"} {
		t.Run(kind, func(t *testing.T) {
			rec := api.raw(http.MethodGet, "/api/reports/"+kind, admin, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), kind+"-report-")
		})
	}

	code, body := api.do(http.MethodGet, "/api/dashboard/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 10.0, field(t, body, "stats")["lowStockThreshold"])
}

func TestAccessRulesAndAuditOverHTTP(t *testing.T) {
	api, services := newTestServer(t)
	admin := adminToken(t, api, services)
	alice := customerToken(t, api, "alice")

	code, _ := api.do(http.MethodGet, "/api/dashboard/stats", alice, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, body := api.do(http.MethodPost, "/api/access-rules", admin, gin.H{
		"role":     model.RoleCustomer,
		"resource": model.ResourceDashboard,
		"action":   model.ActionRead,
		"scope":    model.ScopeAny,
	})
	require.Equal(t, http.StatusCreated, code, body)
	ruleID := field(t, body, "rule")["id"].(string)

	code, _ = api.do(http.MethodGet, "/api/dashboard/stats", alice, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodDelete, "/api/access-rules/"+ruleID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/dashboard/stats", alice, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodGet, "/api/audit?resourceType=access_rules", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 2.0, body["count"])

	code, _ = api.do(http.MethodGet, "/api/audit?from=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(http.MethodGet, "/api/audit?from=2026-03-02&to=2026-03-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
