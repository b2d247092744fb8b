package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/model"
	"medcare-admin/internal/pricing"

	"gorm.io/gorm"
)

// SupplierService manages supplier accounts and their catalogs
type SupplierService interface {
	Register(ctx context.Context, req *model.SupplierRegisterRequest) (*model.LoginResponse, error)
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
	ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id string, req *model.SupplierUpdateRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	AddProduct(ctx context.Context, supplierID string, req *model.SupplierProductRequest) (*model.SupplierProduct, error)
	UpdateProduct(ctx context.Context, supplierID, productID string, req *model.SupplierProductRequest) (*model.SupplierProduct, error)
	DeleteProduct(ctx context.Context, supplierID, productID string) error
	TransferProduct(ctx context.Context, supplierID, productID string, req *model.TransferRequest, transferredBy string) (*model.Product, error)
}

type supplierServiceImpl struct {
	db    *gorm.DB
	auth  *auth.Service
	audit AuditLog
	now   func() time.Time
}

// NewSupplierService creates a new supplier service
func NewSupplierService(db *gorm.DB, authService *auth.Service, audit AuditLog) SupplierService {
	return &supplierServiceImpl{db: db, auth: authService, audit: audit, now: time.Now}
}

// Register creates a supplier account and logs it in
func (s *supplierServiceImpl) Register(ctx context.Context, req *model.SupplierRegisterRequest) (*model.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Supplier{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, conflictError("a supplier with email %s already exists", email)
	}

	hashedPassword, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		Password:      hashedPassword,
		Phone:         req.Phone,
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Address:       req.Address,
		LicenseNumber: req.LicenseNumber,
		Products:      []model.SupplierProduct{},
	}
	if err := s.db.WithContext(ctx).Create(supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictError("a supplier with email %s already exists", email)
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	return s.issueToken(supplier)
}

// Login verifies supplier credentials and issues a token
func (s *supplierServiceImpl) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	var supplier model.Supplier
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	if err := s.auth.ComparePassword(supplier.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(&supplier)
}

func (s *supplierServiceImpl) issueToken(supplier *model.Supplier) (*model.LoginResponse, error) {
	token, err := s.auth.GenerateToken(&model.Principal{
		ID:    supplier.ID,
		Email: supplier.Email,
		Name:  supplier.Name,
		Role:  model.RoleSupplier,
	})
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: supplier}, nil
}

// ListSuppliers lists suppliers with their catalogs
func (s *supplierServiceImpl) ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error) {
	query := s.db.WithContext(ctx).Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company_name) LIKE ? OR email LIKE ?", like, like, like)
	}

	var suppliers []model.Supplier
	if err := query.Order("created_at DESC").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

// GetSupplier returns a supplier with its catalog
func (s *supplierServiceImpl) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	return findSupplier(s.db.WithContext(ctx), id)
}

// UpdateSupplier updates the given supplier fields
func (s *supplierServiceImpl) UpdateSupplier(ctx context.Context, id string, req *model.SupplierUpdateRequest) (*model.Supplier, error) {
	supplier, err := findSupplier(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		hashedPassword, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashedPassword
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.CompanyName != nil {
		updates["company_name"] = strings.TrimSpace(*req.CompanyName)
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.LicenseNumber != nil {
		updates["license_number"] = *req.LicenseNumber
	}
	if len(updates) == 0 {
		return supplier, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Supplier{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		if req.Name == nil && req.CompanyName == nil {
			return nil
		}
		updated, err := findSupplier(tx, id)
		if err != nil {
			return err
		}
		return tx.Model(&model.Product{}).Where("supplier_id = ?", id).
			Update("supplier_name", supplierDisplayName(updated)).Error
	})
	if err != nil {
		return nil, err
	}
	return findSupplier(s.db.WithContext(ctx), id)
}

// DeleteSupplier deletes a supplier whose catalog is empty. Inventory products
// it supplied are kept and unlinked.
func (s *supplierServiceImpl) DeleteSupplier(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := findSupplier(tx, id)
		if err != nil {
			return err
		}
		if n := len(supplier.Products); n > 0 {
			return validationError("supplier %s still has %d products; remove them before deleting the supplier", supplier.Name, n)
		}

		if err := tx.Model(&model.Product{}).Where("supplier_id = ?", id).
			Updates(map[string]interface{}{"supplier_id": nil, "supplier_name": ""}).Error; err != nil {
			return fmt.Errorf("failed to unlink supplier products: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Supplier{}).Error; err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return nil
	})
}

// AddProduct adds an entry to a supplier's catalog
func (s *supplierServiceImpl) AddProduct(ctx context.Context, supplierID string, req *model.SupplierProductRequest) (*model.SupplierProduct, error) {
	if err := validateSupplierProduct(req); err != nil {
		return nil, err
	}
	if _, err := findSupplier(s.db.WithContext(ctx), supplierID); err != nil {
		return nil, err
	}

	product := &model.SupplierProduct{
		SupplierID:   supplierID,
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Brand:        req.Brand,
		Description:  req.Description,
		BuyingPrice:  pricing.Round(req.BuyingPrice),
		SellingPrice: sellingPriceFor(req),
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier product: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces a catalog entry. The selling price is recomputed from
// the buying price unless given explicitly.
func (s *supplierServiceImpl) UpdateProduct(ctx context.Context, supplierID, productID string, req *model.SupplierProductRequest) (*model.SupplierProduct, error) {
	if err := validateSupplierProduct(req); err != nil {
		return nil, err
	}
	product, err := findSupplierProduct(s.db.WithContext(ctx), supplierID, productID)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Category = req.Category
	product.Brand = req.Brand
	product.Description = req.Description
	product.BuyingPrice = pricing.Round(req.BuyingPrice)
	product.SellingPrice = sellingPriceFor(req)

	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a catalog entry. Stock already transferred to inventory is kept.
func (s *supplierServiceImpl) DeleteProduct(ctx context.Context, supplierID, productID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND supplier_id = ?", productID, supplierID).
		Delete(&model.SupplierProduct{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete supplier product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError("supplier product not found: %s", productID)
	}
	return nil
}

// TransferProduct moves quantity units of a catalog entry into inventory. The
// first transfer creates the inventory product, later ones restock it.
func (s *supplierServiceImpl) TransferProduct(ctx context.Context, supplierID, productID string, req *model.TransferRequest, transferredBy string) (*model.Product, error) {
	if req.Quantity <= 0 {
		return nil, validationError("quantity must be greater than zero")
	}
	if req.ExpiryDate.Before(s.now()) {
		return nil, validationError("expiry date must be in the future")
	}

	var (
		result   *model.Product
		restock  bool
		previous int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := findSupplier(tx, supplierID)
		if err != nil {
			return err
		}
		entry, err := findSupplierProduct(tx, supplierID, productID)
		if err != nil {
			return err
		}
		price, err := pricing.ParsePrice(entry.SellingPrice)
		if err != nil {
			return validationError("invalid selling price %q", entry.SellingPrice)
		}

		if entry.TransferredProductID != nil {
			existing, err := findProduct(tx, *entry.TransferredProductID)
			switch {
			case err == nil:
				restock = true
				previous = existing.Quantity
				result, err = s.restock(tx, existing, entry, price, req)
				return err
			case !IsNotFound(err):
				return err
			}
		}

		product := &model.Product{
			Name:                 entry.Name,
			Description:          entry.Description,
			Brand:                entry.Brand,
			Price:                price,
			BuyingPrice:          entry.BuyingPrice,
			Quantity:             req.Quantity,
			Category:             entry.Category,
			ExpiryDate:           req.ExpiryDate,
			Visible:              true,
			PrescriptionRequired: req.PrescriptionRequired || entry.Category == model.CategoryPrescriptionMedicine,
			SupplierID:           &supplier.ID,
			SupplierName:         supplierDisplayName(supplier),
		}
		if req.Visible != nil {
			product.Visible = *req.Visible
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := tx.Model(&model.SupplierProduct{}).Where("id = ?", entry.ID).
			Update("transferred_product_id", product.ID).Error; err != nil {
			return fmt.Errorf("failed to link supplier product: %w", err)
		}
		result = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	reason := "initial transfer"
	if restock {
		reason = "restock"
	}
	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditProductTransfer,
		ResourceType: model.ResourceProducts,
		ResourceID:   result.ID,
		Before:       map[string]interface{}{"quantity": previous},
		After:        map[string]interface{}{"quantity": result.Quantity, "supplierProductId": productID},
		ChangedBy:    transferredBy,
		Reason:       reason,
	})
	return result, nil
}

// restock adds transferred units to an existing inventory product. The product
// keeps the earlier of the two expiry dates.
func (s *supplierServiceImpl) restock(tx *gorm.DB, product *model.Product, entry *model.SupplierProduct, price float64, req *model.TransferRequest) (*model.Product, error) {
	if err := incrementStock(tx, product.ID, req.Quantity); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"price":        price,
		"buying_price": entry.BuyingPrice,
	}
	if req.ExpiryDate.Before(product.ExpiryDate) {
		updates["expiry_date"] = req.ExpiryDate
	}
	if err := tx.Model(&model.Product{}).Where("id = ?", product.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update restocked product: %w", err)
	}
	return findProduct(tx, product.ID)
}

func validateSupplierProduct(req *model.SupplierProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return validationError("product name is required")
	}
	if !model.IsValidCategory(req.Category) {
		return validationError("invalid category %q", req.Category)
	}
	if req.BuyingPrice <= 0 {
		return validationError("buying price must be greater than zero")
	}
	if req.SellingPrice != nil && *req.SellingPrice <= 0 {
		return validationError("selling price must be greater than zero")
	}
	return nil
}

func sellingPriceFor(req *model.SupplierProductRequest) string {
	if req.SellingPrice != nil {
		return pricing.FormatPrice(*req.SellingPrice)
	}
	return pricing.SellingPrice(req.BuyingPrice)
}

func findSupplier(db *gorm.DB, id string) (*model.Supplier, error) {
	var supplier model.Supplier
	err := db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("supplier not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &supplier, nil
}

func findSupplierProduct(db *gorm.DB, supplierID, productID string) (*model.SupplierProduct, error) {
	var product model.SupplierProduct
	if err := db.Where("id = ? AND supplier_id = ?", productID, supplierID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("supplier product not found: %s", productID)
		}
		return nil, fmt.Errorf("failed to get supplier product: %w", err)
	}
	return &product, nil
}
