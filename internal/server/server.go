package server

import (
	"context"
	"fmt"
	"net/http"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/config"
	"medcare-admin/internal/handler"
	"medcare-admin/internal/middleware"
	"medcare-admin/internal/model"
	"medcare-admin/internal/report"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Version is reported by the health check
const Version = "1.0.0"

// Services holds the application services
type Services struct {
	Auth      *auth.Service
	Authz     *service.AuthorizationService
	Audit     service.AuditLog
	Users     service.UserService
	Suppliers service.SupplierService
	Products  service.ProductService
	Orders    service.OrderService
	Payments  service.PaymentService
	Dashboard *service.DashboardService
}

// NewServices wires the services on db. Access rules are seeded on first use.
func NewServices(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Services, error) {
	audit := service.NewDatabaseAuditLog(db)
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)

	authz, err := service.NewStoredAuthorizationService(ctx, service.NewDatabaseAccessRuleStore(db), audit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorization service: %w", err)
	}

	return &Services{
		Auth:      authService,
		Authz:     authz,
		Audit:     audit,
		Users:     service.NewUserService(db, authService),
		Suppliers: service.NewSupplierService(db, authService, audit),
		Products:  service.NewProductService(db, audit),
		Orders:    service.NewOrderService(db, authz, audit),
		Payments:  service.NewPaymentService(db, authz, audit),
		Dashboard: service.NewDashboardService(db, cfg.Inventory.LowStockThreshold, cfg.Inventory.ExpiryWindowDays),
	}, nil
}

// Server is the HTTP API
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	db       *gorm.DB
	services *Services
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, db *gorm.DB, services *Services) (*Server, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Logger(), middleware.Recovery(cfg.Server.IsProduction()), middleware.CORS(cfg.Server.CORSOrigins))

	server := &Server{
		router:   router,
		cfg:      cfg,
		db:       db,
		services: services,
	}

	server.setupRoutes()
	return server, nil
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	svc := s.services
	authz := svc.Authz
	inventory := s.cfg.Inventory

	healthHandler := handler.NewHealthHandler(s.db, Version)
	authHandler := handler.NewAuthHandler(svc.Users, svc.Suppliers, authz)
	supplierHandler := handler.NewSupplierHandler(svc.Suppliers, authz)
	productHandler := handler.NewProductHandler(svc.Products, authz, inventory.LowStockThreshold, inventory.ExpiryWindowDays)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	paymentHandler := handler.NewPaymentHandler(svc.Payments)
	reportHandler := handler.NewReportHandler(svc.Products, svc.Orders, svc.Suppliers, svc.Dashboard,
		report.NewGenerator("MedCare Pharmacy"), inventory.LowStockThreshold)
	accessRuleHandler := handler.NewAccessRuleHandler(authz, svc.Audit)

	s.router.GET("/health", healthHandler.Health)

	// Public routes
	public := s.router.Group("/api")
	public.POST("/auth/register", authHandler.Register)
	public.POST("/auth/login", authHandler.Login)
	public.POST("/suppliers/register", supplierHandler.Register)
	public.POST("/suppliers/login", supplierHandler.Login)
	public.GET("/products", productHandler.GetProducts)
	public.GET("/products/:id", middleware.OptionalAuth(svc.Auth), productHandler.GetProduct)

	// Protected routes
	api := s.router.Group("/api")
	api.Use(middleware.AuthMiddleware(svc.Auth))

	api.GET("/auth/me", authHandler.Me)
	api.GET("/auth/users",
		middleware.RequireAny(authz, model.ResourceUsers, model.ActionRead),
		authHandler.ListUsers)
	api.GET("/auth/users/:id",
		middleware.RequirePermission(authz, model.ResourceUsers, model.ActionRead),
		authHandler.GetUser)
	api.PUT("/auth/users/:id",
		middleware.RequirePermission(authz, model.ResourceUsers, model.ActionUpdate),
		authHandler.UpdateUser)
	api.DELETE("/auth/users/:id",
		middleware.RequirePermission(authz, model.ResourceUsers, model.ActionDelete),
		authHandler.DeleteUser)

	// Suppliers and their catalogs
	api.GET("/suppliers",
		middleware.RequireAny(authz, model.ResourceSuppliers, model.ActionRead),
		supplierHandler.ListSuppliers)
	api.GET("/suppliers/:id",
		middleware.RequirePermission(authz, model.ResourceSuppliers, model.ActionRead),
		supplierHandler.GetSupplier)
	api.PUT("/suppliers/:id",
		middleware.RequirePermission(authz, model.ResourceSuppliers, model.ActionUpdate),
		supplierHandler.UpdateSupplier)
	api.DELETE("/suppliers/:id",
		middleware.RequireAny(authz, model.ResourceSuppliers, model.ActionDelete),
		supplierHandler.DeleteSupplier)
	api.POST("/suppliers/:id/products",
		middleware.RequirePermission(authz, model.ResourceSupplierProducts, model.ActionCreate),
		supplierHandler.AddProduct)
	api.PUT("/suppliers/:id/products/:productId",
		middleware.RequirePermission(authz, model.ResourceSupplierProducts, model.ActionUpdate),
		supplierHandler.UpdateProduct)
	api.DELETE("/suppliers/:id/products/:productId",
		middleware.RequirePermission(authz, model.ResourceSupplierProducts, model.ActionDelete),
		supplierHandler.DeleteProduct)
	api.POST("/suppliers/:id/products/:productId/transfer",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionCreate),
		supplierHandler.TransferProduct)

	// Inventory
	api.GET("/products/admin/all",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionManage),
		productHandler.GetAllProducts)
	api.GET("/products/admin/low-stock",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionManage),
		productHandler.LowStock)
	api.GET("/products/admin/expiring",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionManage),
		productHandler.Expiring)
	api.PUT("/products/admin/:id/visibility",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionManage),
		productHandler.SetVisibility)
	api.POST("/products",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionCreate),
		productHandler.CreateProduct)
	api.PUT("/products/:id",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionUpdate),
		productHandler.UpdateProduct)
	api.PUT("/products/:id/quantity",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionUpdate),
		productHandler.UpdateQuantity)
	api.DELETE("/products/:id",
		middleware.RequireAny(authz, model.ResourceProducts, model.ActionDelete),
		productHandler.DeleteProduct)

	// Orders
	api.POST("/orders",
		middleware.RequirePermission(authz, model.ResourceOrders, model.ActionCreate),
		orderHandler.CreateOrder)
	api.GET("/orders",
		middleware.RequirePermission(authz, model.ResourceOrders, model.ActionRead),
		orderHandler.ListOrders)
	api.GET("/orders/:id",
		middleware.RequirePermission(authz, model.ResourceOrders, model.ActionRead),
		orderHandler.GetOrder)
	api.PUT("/orders/:id",
		middleware.RequirePermission(authz, model.ResourceOrders, model.ActionUpdate),
		orderHandler.UpdateOrder)
	api.DELETE("/orders/:id",
		middleware.RequirePermission(authz, model.ResourceOrders, model.ActionDelete),
		orderHandler.DeleteOrder)
	api.PUT("/orders/:id/status",
		middleware.RequireAny(authz, model.ResourceOrders, model.ActionManage),
		orderHandler.UpdateStatus)

	// Payments
	api.POST("/payments/create-intent",
		middleware.RequirePermission(authz, model.ResourcePayments, model.ActionCreate),
		paymentHandler.CreateIntent)
	api.GET("/payments",
		middleware.RequirePermission(authz, model.ResourcePayments, model.ActionRead),
		paymentHandler.ListPayments)
	api.GET("/payments/:id",
		middleware.RequirePermission(authz, model.ResourcePayments, model.ActionRead),
		paymentHandler.GetPayment)
	api.PUT("/payments/:id/status",
		middleware.RequireAny(authz, model.ResourcePayments, model.ActionManage),
		paymentHandler.UpdateStatus)

	// Administration
	admin := api.Group("")
	admin.GET("/reports/inventory",
		middleware.RequireAny(authz, model.ResourceReports, model.ActionRead),
		reportHandler.Inventory)
	admin.GET("/reports/orders",
		middleware.RequireAny(authz, model.ResourceReports, model.ActionRead),
		reportHandler.Orders)
	admin.GET("/reports/suppliers",
		middleware.RequireAny(authz, model.ResourceReports, model.ActionRead),
		reportHandler.Suppliers)
	admin.GET("/dashboard/stats",
		middleware.RequireAny(authz, model.ResourceDashboard, model.ActionRead),
		reportHandler.DashboardStats)
	admin.GET("/audit",
		middleware.RequireAny(authz, model.ResourceAudit, model.ActionRead),
		accessRuleHandler.GetAuditLog)
	admin.GET("/access-rules",
		middleware.RequireAny(authz, model.ResourceAccessRules, model.ActionManage),
		accessRuleHandler.ListRules)
	admin.POST("/access-rules",
		middleware.RequireAny(authz, model.ResourceAccessRules, model.ActionManage),
		accessRuleHandler.CreateRule)
	admin.DELETE("/access-rules/:id",
		middleware.RequireAny(authz, model.ResourceAccessRules, model.ActionManage),
		accessRuleHandler.DeleteRule)
}

// Start starts the HTTP server and shuts it down gracefully when ctx is done
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
