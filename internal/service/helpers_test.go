package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/config"
	"medcare-admin/internal/infrastructure"
	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fixture is a fully wired service layer on a private in-memory database
type fixture struct {
	db        *gorm.DB
	audit     *service.DatabaseAuditLog
	authz     *service.AuthorizationService
	auth      *auth.Service
	users     service.UserService
	suppliers service.SupplierService
	products  service.ProductService
	orders    service.OrderService
	payments  service.PaymentService
	admin     *model.Principal
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := infrastructure.ConnectDatabase(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, infrastructure.MigrateAllSchemas(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	audit := service.NewDatabaseAuditLog(db)
	authService := auth.NewService("test-secret", time.Hour, bcrypt.MinCost)
	authz, err := service.NewStoredAuthorizationService(context.Background(), service.NewDatabaseAccessRuleStore(db), audit)
	require.NoError(t, err)

	return &fixture{
		db:        db,
		audit:     audit,
		authz:     authz,
		auth:      authService,
		users:     service.NewUserService(db, authService),
		suppliers: service.NewSupplierService(db, authService, audit),
		products:  service.NewProductService(db, audit),
		orders:    service.NewOrderService(db, authz, audit),
		payments:  service.NewPaymentService(db, authz, audit),
		admin:     &model.Principal{ID: uuid.NewString(), Email: "admin@medcare.local", Name: "Admin", Role: model.RoleAdmin},
	}
}

func (f *fixture) customer(t *testing.T, name string) *model.Principal {
	t.Helper()

	user, err := f.users.CreateUser(context.Background(), &service.CreateUserRequest{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "password123",
		Role:     model.RoleCustomer,
	})
	require.NoError(t, err)
	return &model.Principal{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
}

type productOption func(*model.ProductRequest)

func withPrescription() productOption {
	return func(r *model.ProductRequest) { r.PrescriptionRequired = true }
}

func hidden() productOption {
	return func(r *model.ProductRequest) {
		visible := false
		r.Visible = &visible
	}
}

func (f *fixture) product(t *testing.T, name string, quantity int, price float64, opts ...productOption) *model.Product {
	t.Helper()

	req := &model.ProductRequest{
		Name:        name,
		Price:       price,
		BuyingPrice: price / 1.15,
		Quantity:    quantity,
		Category:    model.CategoryOTCMedicine,
		ExpiryDate:  time.Now().AddDate(1, 0, 0),
	}
	for _, opt := range opts {
		opt(req)
	}

	product, err := f.products.CreateProduct(context.Background(), req, f.admin.ID)
	require.NoError(t, err)
	return product
}

func (f *fixture) reload(t *testing.T, id string) *model.Product {
	t.Helper()

	product, err := f.products.GetProduct(context.Background(), id, true)
	require.NoError(t, err)
	return product
}

func orderFor(shippingName string, items ...model.OrderItemRequest) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		Items: items,
		Shipping: model.ShippingInfo{
			FullName: shippingName,
			Address:  "1 Test Street",
			City:     "Springfield",
		},
		ContactPhone: "+1-555-0199",
	}
}

func line(productID string, quantity int) model.OrderItemRequest {
	return model.OrderItemRequest{ProductID: productID, Quantity: quantity}
}

func requireKind(t *testing.T, err error, kind service.ErrorKind) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, service.KindOf(err), "unexpected error: %v", err)
}
