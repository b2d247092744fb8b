package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// orderTransitions lists the statuses reachable from each status
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Deletable reports whether an order in status s may be deleted
func (s OrderStatus) Deletable() bool {
	return s == OrderStatusPending || s == OrderStatusCancelled
}

// ShippingInfo is where and to whom an order ships
type ShippingInfo struct {
	FullName   string `json:"fullName" gorm:"type:varchar(150)" binding:"required"`
	Address    string `json:"address" gorm:"type:text" binding:"required"`
	City       string `json:"city" gorm:"type:varchar(100)" binding:"required"`
	PostalCode string `json:"postalCode" gorm:"type:varchar(20)"`
	Country    string `json:"country" gorm:"type:varchar(100)"`
}

// Order is a customer purchase
type Order struct {
	ID           string       `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string       `json:"userId" gorm:"type:varchar(36);not null;index"`
	Items        []OrderItem  `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Status       OrderStatus  `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	Shipping     ShippingInfo `json:"shipping" gorm:"embedded;embeddedPrefix:shipping_"`
	ContactPhone string       `json:"contactPhone" gorm:"type:varchar(30)"`
	ContactEmail string       `json:"contactEmail" gorm:"type:varchar(255)"`
	Notes        string       `json:"notes" gorm:"type:text"`
	TotalAmount  float64      `json:"totalAmount" gorm:"not null"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is one line of an order with the price captured at creation
type OrderItem struct {
	ID                   string  `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID              string  `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID            string  `json:"productId" gorm:"type:varchar(36);not null;index"`
	ProductName          string  `json:"productName" gorm:"type:varchar(200)"`
	Quantity             int     `json:"quantity" gorm:"not null"`
	Price                float64 `json:"price" gorm:"not null"`
	PrescriptionProvided bool    `json:"prescriptionProvided"`
}

// BeforeCreate assigns a UUID when none is set
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// OrderItemRequest is one requested line of a new order
type OrderItemRequest struct {
	ProductID            string `json:"productId" binding:"required"`
	Quantity             int    `json:"quantity" binding:"required,gt=0"`
	PrescriptionProvided bool   `json:"prescriptionProvided"`
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Shipping     ShippingInfo       `json:"shipping" binding:"required"`
	ContactPhone string             `json:"contactPhone" binding:"required"`
	ContactEmail string             `json:"contactEmail" binding:"omitempty,email"`
	Notes        string             `json:"notes"`
}

// UpdateOrderRequest edits the delivery details of a pending order
type UpdateOrderRequest struct {
	Shipping     *ShippingInfo `json:"shipping,omitempty"`
	ContactPhone *string       `json:"contactPhone,omitempty"`
	ContactEmail *string       `json:"contactEmail,omitempty" binding:"omitempty,email"`
	Notes        *string       `json:"notes,omitempty"`
}

// StatusRequest is the body of PUT /orders/:id/status
type StatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,orderstatus"`
}
