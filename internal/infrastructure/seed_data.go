package infrastructure

import (
	"context"
	"fmt"
	"log"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"gorm.io/gorm"
)

// SeedDataManager handles sample data initialization
type SeedDataManager struct {
	db              *gorm.DB
	userService     service.UserService
	supplierService service.SupplierService
	productService  service.ProductService
}

// NewSeedDataManager creates a new seed data manager
func NewSeedDataManager(db *gorm.DB, userService service.UserService, supplierService service.SupplierService, productService service.ProductService) *SeedDataManager {
	return &SeedDataManager{
		db:              db,
		userService:     userService,
		supplierService: supplierService,
		productService:  productService,
	}
}

// SeedAll initializes all sample data. Each step is skipped when its table
// already has rows.
func (s *SeedDataManager) SeedAll(ctx context.Context, ruleStore service.AccessRuleStore) error {
	if _, err := ruleStore.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to setup access rules: %w", err)
	}

	admin, err := s.setupSampleUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup sample users: %w", err)
	}

	if err := s.setupSampleSuppliers(ctx, admin); err != nil {
		return fmt.Errorf("failed to setup sample suppliers: %w", err)
	}

	if err := s.setupSampleProducts(ctx, admin); err != nil {
		return fmt.Errorf("failed to setup sample products: %w", err)
	}

	return nil
}

// setupSampleUsers creates an admin and two customers. It returns the ID of the admin.
func (s *SeedDataManager) setupSampleUsers(ctx context.Context) (string, error) {
	users, err := s.userService.ListUsers(ctx, service.UserFilters{Role: model.RoleAdmin})
	if err != nil {
		return "", fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(users) > 0 {
		log.Println("Sample users already exist, skipping creation")
		return users[0].ID, nil
	}

	sampleUsers := []service.CreateUserRequest{
		{
			Name:     "Store Admin",
			Email:    "admin@medcare.local",
			Password: "admin123",
			Role:     model.RoleAdmin,
			Phone:    "+1-555-0100",
		},
		{
			Name:     "Alice Customer",
			Email:    "alice@example.com",
			Password: "password123",
			Role:     model.RoleCustomer,
			Phone:    "+1-555-0101",
			Address:  "12 Elm Street, Springfield",
		},
		{
			Name:          "Bob's Clinic",
			Email:         "bob@clinic.example.com",
			Password:      "password123",
			Role:          model.RoleCustomer,
			Phone:         "+1-555-0102",
			Address:       "400 Main Street, Shelbyville",
			BusinessName:  "Shelbyville Family Clinic",
			LicenseNumber: "CL-20931",
		},
	}

	adminID := ""
	for _, userReq := range sampleUsers {
		user, err := s.userService.CreateUser(ctx, &userReq)
		if err != nil {
			log.Printf("Warning: failed to create sample user %s: %v", userReq.Email, err)
			continue
		}
		log.Printf("Created sample user: %s (ID: %s)", user.Email, user.ID)
		if user.Role == model.RoleAdmin {
			adminID = user.ID
		}
	}

	log.Println("Sample user data setup completed")
	return adminID, nil
}

type sampleCatalogEntry struct {
	product  model.SupplierProductRequest
	transfer *model.TransferRequest
}

// setupSampleSuppliers registers suppliers with catalogs and transfers part of
// each catalog into inventory
func (s *SeedDataManager) setupSampleSuppliers(ctx context.Context, adminID string) error {
	existing, err := s.supplierService.ListSuppliers(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to check existing suppliers: %w", err)
	}
	if len(existing) > 0 {
		log.Println("Sample suppliers already exist, skipping creation")
		return nil
	}

	now := time.Now()
	visible := true
	suppliers := []struct {
		account model.SupplierRegisterRequest
		catalog []sampleCatalogEntry
	}{
		{
			account: model.SupplierRegisterRequest{
				Name:          "Maria Gomez",
				Email:         "orders@acmepharma.example.com",
				Password:      "supplier123",
				Phone:         "+1-555-0200",
				CompanyName:   "Acme Pharma Distribution",
				Address:       "1 Industrial Way, Capital City",
				LicenseNumber: "WD-88412",
			},
			catalog: []sampleCatalogEntry{
				{
					product: model.SupplierProductRequest{
						Name: "Amoxicillin 500mg Capsules", Category: model.CategoryPrescriptionMedicine,
						Brand: "Amoxil", Description: "Broad-spectrum antibiotic, 21 capsules", BuyingPrice: 8.40,
					},
					transfer: &model.TransferRequest{Quantity: 60, ExpiryDate: now.AddDate(1, 6, 0), PrescriptionRequired: true, Visible: &visible},
				},
				{
					product: model.SupplierProductRequest{
						Name: "Ibuprofen 200mg Tablets", Category: model.CategoryOTCMedicine,
						Brand: "Advil", Description: "Pain and fever relief, 24 tablets", BuyingPrice: 4.00,
					},
					transfer: &model.TransferRequest{Quantity: 150, ExpiryDate: now.AddDate(2, 0, 0), Visible: &visible},
				},
				{
					product: model.SupplierProductRequest{
						Name: "Loratadine 10mg Tablets", Category: model.CategoryOTCMedicine,
						Brand: "Claritin", Description: "Non-drowsy allergy relief, 30 tablets", BuyingPrice: 6.20,
					},
				},
			},
		},
		{
			account: model.SupplierRegisterRequest{
				Name:          "Ken Watanabe",
				Email:         "sales@wellnessgoods.example.com",
				Password:      "supplier123",
				Phone:         "+1-555-0300",
				CompanyName:   "Wellness Goods Ltd",
				Address:       "77 Harbor Road, Port Town",
				LicenseNumber: "WD-90127",
			},
			catalog: []sampleCatalogEntry{
				{
					product: model.SupplierProductRequest{
						Name: "Vitamin D3 1000 IU", Category: model.CategoryVitaminsSupplements,
						Brand: "SunVita", Description: "90 softgels", BuyingPrice: 7.50,
					},
					transfer: &model.TransferRequest{Quantity: 8, ExpiryDate: now.AddDate(0, 0, 20), Visible: &visible},
				},
				{
					product: model.SupplierProductRequest{
						Name: "Digital Thermometer", Category: model.CategoryMedicalDevices,
						Brand: "ThermoCheck", Description: "Fast 10 second reading", BuyingPrice: 9.00,
					},
					transfer: &model.TransferRequest{Quantity: 25, ExpiryDate: now.AddDate(5, 0, 0), Visible: &visible},
				},
			},
		},
	}

	for _, sample := range suppliers {
		registered, err := s.supplierService.Register(ctx, &sample.account)
		if err != nil {
			log.Printf("Warning: failed to create sample supplier %s: %v", sample.account.Email, err)
			continue
		}
		supplier := registered.User.(*model.Supplier)
		log.Printf("Created sample supplier: %s (ID: %s)", supplier.CompanyName, supplier.ID)

		for _, entry := range sample.catalog {
			product, err := s.supplierService.AddProduct(ctx, supplier.ID, &entry.product)
			if err != nil {
				log.Printf("Warning: failed to add %s to %s: %v", entry.product.Name, supplier.CompanyName, err)
				continue
			}
			if entry.transfer == nil {
				continue
			}
			if _, err := s.supplierService.TransferProduct(ctx, supplier.ID, product.ID, entry.transfer, adminID); err != nil {
				log.Printf("Warning: failed to transfer %s to inventory: %v", product.Name, err)
			}
		}
	}

	log.Println("Sample supplier data setup completed")
	return nil
}

// setupSampleProducts adds products bought outside any registered supplier
func (s *SeedDataManager) setupSampleProducts(ctx context.Context, adminID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Where("supplier_id IS NULL").Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if count > 0 {
		log.Println("Sample products already exist, skipping creation")
		return nil
	}

	now := time.Now()
	hidden := false
	sampleProducts := []model.ProductRequest{
		{
			Name: "Sterile Gauze Pads 10x10cm", Description: "Pack of 25", Brand: "CarePlus",
			Price: 5.99, BuyingPrice: 3.10, Quantity: 200, Category: model.CategoryFirstAid,
			ExpiryDate: now.AddDate(3, 0, 0),
		},
		{
			Name: "Baby Diaper Rash Cream", Description: "Zinc oxide 40%, 100g", Brand: "SoftSkin",
			Price: 8.49, BuyingPrice: 5.20, Quantity: 4, Category: model.CategoryBabyCare,
			ExpiryDate: now.AddDate(0, 0, 14),
		},
		{
			Name: "Sensitive Toothpaste", Description: "75ml", Brand: "DentaCare",
			Price: 3.75, BuyingPrice: 2.00, Quantity: 0, Category: model.CategoryPersonalCare,
			ExpiryDate: now.AddDate(1, 0, 0),
		},
		{
			Name: "Insulin Pen Needles 4mm", Description: "Box of 100, awaiting quality check", Brand: "NovoFine",
			Price: 24.90, BuyingPrice: 18.00, Quantity: 40, Category: model.CategoryMedicalDevices,
			ExpiryDate: now.AddDate(2, 0, 0), Visible: &hidden, PrescriptionRequired: true,
		},
	}

	for _, productReq := range sampleProducts {
		product, err := s.productService.CreateProduct(ctx, &productReq, adminID)
		if err != nil {
			log.Printf("Warning: failed to create sample product %s: %v", productReq.Name, err)
			continue
		}
		log.Printf("Created sample product: %s (ID: %s)", product.Name, product.ID)
	}

	log.Println("Sample product data setup completed")
	return nil
}
