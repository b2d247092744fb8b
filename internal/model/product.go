package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product categories
const (
	CategoryPrescriptionMedicine = "prescription-medicine"
	CategoryOTCMedicine          = "otc-medicine"
	CategoryVitaminsSupplements  = "vitamins-supplements"
	CategoryPersonalCare         = "personal-care"
	CategoryMedicalDevices       = "medical-devices"
	CategoryBabyCare             = "baby-care"
	CategoryFirstAid             = "first-aid"
)

// Categories lists every valid product category
var Categories = []string{
	CategoryPrescriptionMedicine,
	CategoryOTCMedicine,
	CategoryVitaminsSupplements,
	CategoryPersonalCare,
	CategoryMedicalDevices,
	CategoryBabyCare,
	CategoryFirstAid,
}

// IsValidCategory reports whether c is one of Categories
func IsValidCategory(c string) bool {
	for _, category := range Categories {
		if category == c {
			return true
		}
	}
	return false
}

// Product is an inventory item sold in the store
type Product struct {
	ID                   string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name                 string    `json:"name" gorm:"type:varchar(200);not null;index"`
	Description          string    `json:"description" gorm:"type:text"`
	Brand                string    `json:"brand" gorm:"type:varchar(100)"`
	Price                float64   `json:"price" gorm:"not null"`
	BuyingPrice          float64   `json:"buyingPrice" gorm:"not null;default:0"`
	Quantity             int       `json:"quantity" gorm:"not null;default:0"`
	Category             string    `json:"category" gorm:"type:varchar(50);not null;index"`
	ExpiryDate           time.Time `json:"expiryDate" gorm:"not null;index"`
	Visible              bool      `json:"visible" gorm:"not null"`
	OutOfStock           bool      `json:"outOfStock" gorm:"not null;default:false"`
	PrescriptionRequired bool      `json:"prescriptionRequired" gorm:"not null;default:false"`
	ImageURL             string    `json:"imageUrl" gorm:"type:varchar(500)"`
	SupplierID           *string   `json:"supplierId,omitempty" gorm:"type:varchar(36);index"`
	SupplierName         string    `json:"supplierName,omitempty" gorm:"type:varchar(150)"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID and derives the stock flag
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.SyncStockFlag()
	return nil
}

// SyncStockFlag derives OutOfStock from Quantity
func (p *Product) SyncStockFlag() {
	p.OutOfStock = p.Quantity <= 0
}

// ProductRequest is the create/update body for a product
type ProductRequest struct {
	Name                 string    `json:"name" binding:"required"`
	Description          string    `json:"description"`
	Brand                string    `json:"brand"`
	Price                float64   `json:"price" binding:"required,gt=0"`
	BuyingPrice          float64   `json:"buyingPrice" binding:"gte=0"`
	Quantity             int       `json:"quantity" binding:"gte=0"`
	Category             string    `json:"category" binding:"required,category"`
	ExpiryDate           time.Time `json:"expiryDate" binding:"required"`
	Visible              *bool     `json:"visible"`
	PrescriptionRequired bool      `json:"prescriptionRequired"`
	ImageURL             string    `json:"imageUrl"`
	SupplierID           *string   `json:"supplierId"`
}

// QuantityRequest either sets the stock level or adjusts it by a delta
type QuantityRequest struct {
	Quantity   *int `json:"quantity" binding:"omitempty,gte=0"`
	Adjustment *int `json:"adjustment"`
}

// VisibilityRequest toggles storefront visibility
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// ProductListResponse is a page of products
type ProductListResponse struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
	TotalItems int       `json:"totalItems"`
}
