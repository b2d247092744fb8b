package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/pricing"

	"gorm.io/gorm"
)

// ProductService is the inventory service
type ProductService interface {
	CreateProduct(ctx context.Context, req *model.ProductRequest, createdBy string) (*model.Product, error)
	GetProduct(ctx context.Context, id string, includeHidden bool) (*model.Product, error)
	ListProducts(ctx context.Context, filters ProductFilters) (*model.ProductListResponse, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id string, req *model.ProductRequest, updatedBy string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string, deletedBy string) error
	UpdateQuantity(ctx context.Context, id string, req *model.QuantityRequest, updatedBy string) (*model.Product, error)
	SetVisibility(ctx context.Context, id string, visible bool, updatedBy string) (*model.Product, error)
	LowStock(ctx context.Context, threshold int) ([]model.Product, error)
	Expiring(ctx context.Context, withinDays int) ([]model.Product, error)
}

// ProductFilters are the product listing filters
type ProductFilters struct {
	Category      string
	Search        string
	MinPrice      float64
	MaxPrice      float64
	SupplierID    string
	IncludeHidden bool
	Page          int // starts at 1
	Limit         int // page size
}

type productServiceImpl struct {
	db    *gorm.DB
	audit AuditLog
	now   func() time.Time
}

// NewProductService creates a new product service
func NewProductService(db *gorm.DB, audit AuditLog) ProductService {
	return &productServiceImpl{db: db, audit: audit, now: time.Now}
}

// CreateProduct creates a new product
func (s *productServiceImpl) CreateProduct(ctx context.Context, req *model.ProductRequest, createdBy string) (*model.Product, error) {
	if err := s.validateRequest(req, nil); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:                 strings.TrimSpace(req.Name),
		Description:          req.Description,
		Brand:                req.Brand,
		Price:                pricing.Round(req.Price),
		BuyingPrice:          pricing.Round(req.BuyingPrice),
		Quantity:             req.Quantity,
		Category:             req.Category,
		ExpiryDate:           req.ExpiryDate,
		Visible:              true,
		PrescriptionRequired: req.PrescriptionRequired,
		ImageURL:             req.ImageURL,
	}
	if req.Visible != nil {
		product.Visible = *req.Visible
	}
	if err := s.assignSupplier(ctx, product, req.SupplierID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// GetProduct returns a product. Hidden products are only returned when includeHidden is set.
func (s *productServiceImpl) GetProduct(ctx context.Context, id string, includeHidden bool) (*model.Product, error) {
	product, err := findProduct(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !product.Visible && !includeHidden {
		return nil, notFoundError("product not found: %s", id)
	}
	return product, nil
}

// ListProducts returns a page of products
func (s *productServiceImpl) ListProducts(ctx context.Context, filters ProductFilters) (*model.ProductListResponse, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := s.applyProductFilters(s.db.WithContext(ctx).Model(&model.Product{}), filters)

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []model.Product
	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &model.ProductListResponse{
		Products:   products,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalItems: int(totalCount),
	}, nil
}

// ListAll returns every product, hidden ones included, by name
func (s *productServiceImpl) ListAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// applyProductFilters applies the listing filters to a query
func (s *productServiceImpl) applyProductFilters(query *gorm.DB, filters ProductFilters) *gorm.DB {
	if !filters.IncludeHidden {
		query = query.Where("visible = ?", true)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Search != "" {
		like := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", like, like)
	}
	if filters.MinPrice > 0 {
		query = query.Where("price >= ?", filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		query = query.Where("price <= ?", filters.MaxPrice)
	}
	if filters.SupplierID != "" {
		query = query.Where("supplier_id = ?", filters.SupplierID)
	}
	return query
}

// UpdateProduct replaces the editable fields of a product
func (s *productServiceImpl) UpdateProduct(ctx context.Context, id string, req *model.ProductRequest, updatedBy string) (*model.Product, error) {
	product, err := findProduct(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRequest(req, product); err != nil {
		return nil, err
	}

	before := *product
	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Brand = req.Brand
	product.Price = pricing.Round(req.Price)
	product.BuyingPrice = pricing.Round(req.BuyingPrice)
	product.Quantity = req.Quantity
	product.Category = req.Category
	product.ExpiryDate = req.ExpiryDate
	product.PrescriptionRequired = req.PrescriptionRequired
	product.ImageURL = req.ImageURL
	if req.Visible != nil {
		product.Visible = *req.Visible
	}
	if err := s.assignSupplier(ctx, product, req.SupplierID); err != nil {
		return nil, err
	}
	product.SyncStockFlag()

	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if before.Quantity != product.Quantity {
		recordAudit(ctx, s.audit, model.AuditEntry{
			Action:       model.AuditStockAdjusted,
			ResourceType: model.ResourceProducts,
			ResourceID:   product.ID,
			Before:       stockState(&before),
			After:        stockState(product),
			ChangedBy:    updatedBy,
			Reason:       "product edited",
		})
	}
	return product, nil
}

// DeleteProduct deletes a product
func (s *productServiceImpl) DeleteProduct(ctx context.Context, id string, deletedBy string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError("product not found: %s", id)
	}
	return nil
}

// UpdateQuantity sets the stock level or adjusts it by a delta. Negative
// adjustments never take stock below zero.
func (s *productServiceImpl) UpdateQuantity(ctx context.Context, id string, req *model.QuantityRequest, updatedBy string) (*model.Product, error) {
	if (req.Quantity == nil) == (req.Adjustment == nil) {
		return nil, validationError("exactly one of quantity or adjustment is required")
	}

	var before, after *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := findProduct(tx, id)
		if err != nil {
			return err
		}
		before = product

		switch {
		case req.Quantity != nil:
			err = setStock(tx, id, *req.Quantity)
		case *req.Adjustment >= 0:
			err = incrementStock(tx, id, *req.Adjustment)
		default:
			var ok bool
			ok, err = decrementStock(tx, id, -*req.Adjustment)
			if err == nil && !ok {
				err = insufficientStockError(product.Name, product.Quantity, -*req.Adjustment)
			}
		}
		if err != nil {
			return err
		}

		after, err = findProduct(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditStockAdjusted,
		ResourceType: model.ResourceProducts,
		ResourceID:   id,
		Before:       stockState(before),
		After:        stockState(after),
		ChangedBy:    updatedBy,
		Reason:       "quantity update",
	})
	return after, nil
}

// SetVisibility shows or hides a product in the storefront
func (s *productServiceImpl) SetVisibility(ctx context.Context, id string, visible bool, updatedBy string) (*model.Product, error) {
	product, err := findProduct(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if product.Visible == visible {
		return product, nil
	}

	err = s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"visible": visible, "updated_at": s.now()}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update product visibility: %w", err)
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditProductVisibility,
		ResourceType: model.ResourceProducts,
		ResourceID:   id,
		Before:       map[string]bool{"visible": product.Visible},
		After:        map[string]bool{"visible": visible},
		ChangedBy:    updatedBy,
	})

	product.Visible = visible
	return product, nil
}

// LowStock returns products whose quantity is at or below the threshold, emptiest first
func (s *productServiceImpl) LowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	if threshold < 0 {
		return nil, validationError("threshold must not be negative")
	}

	var products []model.Product
	err := s.db.WithContext(ctx).
		Where("quantity <= ?", threshold).
		Order("quantity ASC, name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

// Expiring returns products expiring within the window, including expired ones, soonest first
func (s *productServiceImpl) Expiring(ctx context.Context, withinDays int) ([]model.Product, error) {
	if withinDays < 0 {
		return nil, validationError("days must not be negative")
	}

	cutoff := s.now().AddDate(0, 0, withinDays)
	var products []model.Product
	err := s.db.WithContext(ctx).
		Where("expiry_date <= ?", cutoff).
		Order("expiry_date ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get expiring products: %w", err)
	}
	return products, nil
}

func (s *productServiceImpl) validateRequest(req *model.ProductRequest, existing *model.Product) error {
	if strings.TrimSpace(req.Name) == "" {
		return validationError("product name is required")
	}
	if !model.IsValidCategory(req.Category) {
		return validationError("invalid category %q", req.Category)
	}
	if req.Price <= 0 {
		return validationError("price must be greater than zero")
	}
	if req.BuyingPrice < 0 {
		return validationError("buying price must not be negative")
	}
	if req.Quantity < 0 {
		return validationError("quantity must not be negative")
	}
	if req.ExpiryDate.IsZero() {
		return validationError("expiry date is required")
	}
	expiryChanged := existing == nil || !existing.ExpiryDate.Equal(req.ExpiryDate)
	if expiryChanged && req.ExpiryDate.Before(s.now()) {
		return validationError("expiry date must be in the future")
	}
	return nil
}

func (s *productServiceImpl) assignSupplier(ctx context.Context, product *model.Product, supplierID *string) error {
	if supplierID == nil || *supplierID == "" {
		product.SupplierID = nil
		product.SupplierName = ""
		return nil
	}

	var supplier model.Supplier
	if err := s.db.WithContext(ctx).Select("id", "name", "company_name").Where("id = ?", *supplierID).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError("supplier not found: %s", *supplierID)
		}
		return fmt.Errorf("failed to get supplier: %w", err)
	}

	product.SupplierID = &supplier.ID
	product.SupplierName = supplierDisplayName(&supplier)
	return nil
}

func supplierDisplayName(s *model.Supplier) string {
	if s.CompanyName != "" {
		return s.CompanyName
	}
	return s.Name
}

func stockState(p *model.Product) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{"quantity": p.Quantity, "outOfStock": p.OutOfStock}
}

// findProduct loads a product on db, which may be a transaction
func findProduct(db *gorm.DB, id string) (*model.Product, error) {
	var product model.Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("product not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// decrementStock takes quantity units in one conditional update. It returns
// false, leaving the row untouched, when fewer than quantity units are in stock.
func decrementStock(tx *gorm.DB, productID string, quantity int) (bool, error) {
	result := tx.Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, syncStockFlag(tx, productID)
}

// incrementStock returns quantity units to a product. A product deleted in the
// meantime is skipped.
func incrementStock(tx *gorm.DB, productID string, quantity int) error {
	result := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Printf("Warning: product %s no longer exists, %d units not restocked", productID, quantity)
		return nil
	}
	return syncStockFlag(tx, productID)
}

// setStock sets an absolute stock level
func setStock(tx *gorm.DB, productID string, quantity int) error {
	if quantity < 0 {
		return validationError("quantity must not be negative")
	}
	err := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"quantity":     quantity,
			"out_of_stock": quantity <= 0,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	return nil
}

// syncStockFlag recomputes out_of_stock from the stored quantity
func syncStockFlag(tx *gorm.DB, productID string) error {
	err := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("out_of_stock", gorm.Expr("quantity <= 0")).Error
	if err != nil {
		return fmt.Errorf("failed to update stock flag: %w", err)
	}
	return nil
}
