package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment methods
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// IsValidPaymentStatus reports whether s is a known payment status
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment records how an order is paid. Card details are kept masked only.
type Payment struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID         string    `json:"orderId" gorm:"type:varchar(36);not null;index"`
	UserID          string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	Amount          float64   `json:"amount" gorm:"not null"`
	Method          string    `json:"method" gorm:"type:varchar(10);not null"`
	Status          string    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	IntentReference string    `json:"intentReference" gorm:"type:varchar(36);uniqueIndex"`
	CardBrand       string    `json:"cardBrand,omitempty" gorm:"type:varchar(20)"`
	CardLast4       string    `json:"cardLast4,omitempty" gorm:"type:varchar(4)"`
	CardHolder      string    `json:"cardHolder,omitempty" gorm:"type:varchar(150)"`
	CardExpMonth    int       `json:"cardExpMonth,omitempty"`
	CardExpYear     int       `json:"cardExpYear,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID and an intent reference
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.IntentReference == "" {
		p.IntentReference = uuid.NewString()
	}
	return nil
}

// CardDetails is the raw card input of a payment intent. It is never stored.
type CardDetails struct {
	Number   string `json:"number" binding:"required"`
	Holder   string `json:"holder" binding:"required"`
	ExpMonth int    `json:"expMonth" binding:"required,min=1,max=12"`
	ExpYear  int    `json:"expYear" binding:"required"`
	CVC      string `json:"cvc" binding:"required,len=3|len=4,numeric"`
}

// PaymentIntentRequest is the body of POST /payments/create-intent
type PaymentIntentRequest struct {
	OrderID string       `json:"orderId" binding:"required"`
	Method  string       `json:"method" binding:"required,oneof=cod card"`
	Card    *CardDetails `json:"card,omitempty"`
}

// PaymentStatusRequest is the body of PUT /payments/:id/status
type PaymentStatusRequest struct {
	Status string `json:"status" binding:"required,paymentstatus"`
}
