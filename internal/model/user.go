package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleSupplier = "supplier"
)

// User is an account that can log in to the store or the admin dashboard
type User struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name          string    `json:"name" gorm:"type:varchar(100);not null"`
	Email         string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password      string    `json:"-" gorm:"type:varchar(255);not null"`
	Role          string    `json:"role" gorm:"type:varchar(20);not null;default:'customer';index"`
	Phone         string    `json:"phone" gorm:"type:varchar(30)"`
	Address       string    `json:"address" gorm:"type:text"`
	BusinessName  string    `json:"businessName,omitempty" gorm:"type:varchar(150)"`
	LicenseNumber string    `json:"licenseNumber,omitempty" gorm:"type:varchar(100)"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Principal is the authenticated caller of a request, built from token claims
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the caller has the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// JWTClaims are the claims carried by a bearer token
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the body of the login endpoints
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful login or registration
type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}
