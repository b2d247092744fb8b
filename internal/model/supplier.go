package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is a vendor account with its own catalog of products it can supply
type Supplier struct {
	ID            string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name          string            `json:"name" gorm:"type:varchar(100);not null"`
	Email         string            `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password      string            `json:"-" gorm:"type:varchar(255);not null"`
	Phone         string            `json:"phone" gorm:"type:varchar(30)"`
	CompanyName   string            `json:"companyName" gorm:"type:varchar(150)"`
	Address       string            `json:"address" gorm:"type:text"`
	LicenseNumber string            `json:"licenseNumber" gorm:"type:varchar(100)"`
	Products      []SupplierProduct `json:"products" gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SupplierProduct is an entry in a supplier's catalog. It becomes an inventory
// Product only through an explicit transfer.
type SupplierProduct struct {
	ID                   string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	SupplierID           string    `json:"supplierId" gorm:"type:varchar(36);not null;index"`
	Name                 string    `json:"name" gorm:"type:varchar(200);not null"`
	Category             string    `json:"category" gorm:"type:varchar(50);not null"`
	Brand                string    `json:"brand" gorm:"type:varchar(100)"`
	Description          string    `json:"description" gorm:"type:text"`
	BuyingPrice          float64   `json:"buyingPrice" gorm:"not null"`
	SellingPrice         string    `json:"sellingPrice" gorm:"type:varchar(32);not null"`
	TransferredProductID *string   `json:"transferredProductId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (p *SupplierProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SupplierRegisterRequest is the body of POST /suppliers/register
type SupplierRegisterRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Phone         string `json:"phone"`
	CompanyName   string `json:"companyName" binding:"required"`
	Address       string `json:"address"`
	LicenseNumber string `json:"licenseNumber"`
}

// SupplierUpdateRequest holds the editable supplier fields
type SupplierUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Password      *string `json:"password,omitempty" binding:"omitempty,min=6"`
	Phone         *string `json:"phone,omitempty"`
	CompanyName   *string `json:"companyName,omitempty"`
	Address       *string `json:"address,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
}

// SupplierProductRequest adds or edits a catalog entry. SellingPrice defaults to
// the buying price plus the standard markup.
type SupplierProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Category     string   `json:"category" binding:"required,category"`
	Brand        string   `json:"brand"`
	Description  string   `json:"description"`
	BuyingPrice  float64  `json:"buyingPrice" binding:"required,gt=0"`
	SellingPrice *float64 `json:"sellingPrice" binding:"omitempty,gt=0"`
}

// TransferRequest moves a supplier product into inventory
type TransferRequest struct {
	Quantity             int       `json:"quantity" binding:"required,gt=0"`
	ExpiryDate           time.Time `json:"expiryDate" binding:"required"`
	PrescriptionRequired bool      `json:"prescriptionRequired"`
	Visible              *bool     `json:"visible"`
}
