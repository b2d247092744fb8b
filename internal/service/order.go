package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService places orders and keeps inventory in step with order status
type OrderService interface {
	CreateOrder(ctx context.Context, actor *model.Principal, req *model.CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, actor *model.Principal, id string) (*model.Order, error)
	ListOrders(ctx context.Context, actor *model.Principal, filters OrderFilters) ([]model.Order, error)
	UpdateOrder(ctx context.Context, actor *model.Principal, id string, req *model.UpdateOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor *model.Principal, id string, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(ctx context.Context, actor *model.Principal, id string) error
}

// OrderFilters are the order listing filters
type OrderFilters struct {
	Status model.OrderStatus
	UserID string
}

type orderServiceImpl struct {
	db    *gorm.DB
	authz Authorizer
	audit AuditLog
	now   func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(db *gorm.DB, authz Authorizer, audit AuditLog) OrderService {
	return &orderServiceImpl{db: db, authz: authz, audit: audit, now: time.Now}
}

// CreateOrder reserves stock for every item and records the order. Either the
// whole order is placed or nothing changes.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, actor *model.Principal, req *model.CreateOrderRequest) (*model.Order, error) {
	if !s.authz.CanPerform(actor, model.ActionCreate, Owned(model.ResourceOrders, actor.ID)) {
		return nil, ErrForbidden
	}
	if len(req.Items) == 0 {
		return nil, validationError("order must contain at least one item")
	}
	if strings.TrimSpace(req.ContactPhone) == "" {
		return nil, validationError("contact phone is required")
	}

	order := &model.Order{
		UserID:       actor.ID,
		Status:       model.OrderStatusPending,
		Shipping:     req.Shipping,
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		ContactEmail: normalizeEmail(req.ContactEmail),
		Notes:        req.Notes,
	}
	if order.ContactEmail == "" {
		order.ContactEmail = actor.Email
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := make([]decimal.Decimal, 0, len(req.Items))
		for _, itemReq := range req.Items {
			item, err := reserveItem(tx, itemReq)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
			lines = append(lines, pricing.LineTotal(item.Price, item.Quantity))
		}
		order.TotalAmount = pricing.Total(lines...)

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditOrderCreated,
		ResourceType: model.ResourceOrders,
		ResourceID:   order.ID,
		After:        map[string]interface{}{"status": order.Status, "totalAmount": order.TotalAmount, "items": len(order.Items)},
		ChangedBy:    actor.ID,
	})
	return order, nil
}

// reserveItem checks that a product can be sold and takes the requested units
func reserveItem(tx *gorm.DB, req model.OrderItemRequest) (*model.OrderItem, error) {
	if req.Quantity <= 0 {
		return nil, validationError("quantity must be greater than zero")
	}

	product, err := findProduct(tx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Visible {
		return nil, validationError("product %s is not available", product.Name)
	}
	if product.OutOfStock {
		return nil, insufficientStockError(product.Name, 0, req.Quantity)
	}
	if product.PrescriptionRequired && !req.PrescriptionProvided {
		return nil, validationError("product %s requires a prescription", product.Name)
	}

	ok, err := decrementStock(tx, product.ID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, insufficientStockError(product.Name, availableStock(tx, product), req.Quantity)
	}

	return &model.OrderItem{
		ProductID:            product.ID,
		ProductName:          product.Name,
		Quantity:             req.Quantity,
		Price:                product.Price,
		PrescriptionProvided: req.PrescriptionProvided,
	}, nil
}

// availableStock re-reads the quantity after a failed decrement
func availableStock(tx *gorm.DB, product *model.Product) int {
	current, err := findProduct(tx, product.ID)
	if err != nil {
		return product.Quantity
	}
	return current.Quantity
}

// GetOrder returns an order with its items
func (s *orderServiceImpl) GetOrder(ctx context.Context, actor *model.Principal, id string) (*model.Order, error) {
	order, err := findOrder(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanPerform(actor, model.ActionRead, Owned(model.ResourceOrders, order.UserID)) {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders returns every order to callers who may read all orders and the
// caller's own orders otherwise
func (s *orderServiceImpl) ListOrders(ctx context.Context, actor *model.Principal, filters OrderFilters) ([]model.Order, error) {
	query := s.db.WithContext(ctx).Preload("Items")

	switch {
	case s.authz.CanPerform(actor, model.ActionRead, Collection(model.ResourceOrders)):
		if filters.UserID != "" {
			query = query.Where("user_id = ?", filters.UserID)
		}
	case s.authz.HasPermission(actor, model.ActionRead, model.ResourceOrders):
		query = query.Where("user_id = ?", actor.ID)
	default:
		return nil, ErrForbidden
	}

	if filters.Status != "" {
		if !filters.Status.IsValid() {
			return nil, validationError("invalid order status %q", filters.Status)
		}
		query = query.Where("status = ?", filters.Status)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrder edits the delivery details of a pending order
func (s *orderServiceImpl) UpdateOrder(ctx context.Context, actor *model.Principal, id string, req *model.UpdateOrderRequest) (*model.Order, error) {
	order, err := findOrder(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanPerform(actor, model.ActionUpdate, Owned(model.ResourceOrders, order.UserID)) {
		return nil, ErrForbidden
	}
	if order.Status != model.OrderStatusPending {
		return nil, validationError("only pending orders can be edited, order is %s", order.Status)
	}

	if req.Shipping != nil {
		order.Shipping = *req.Shipping
	}
	if req.ContactPhone != nil {
		if strings.TrimSpace(*req.ContactPhone) == "" {
			return nil, validationError("contact phone is required")
		}
		order.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.ContactEmail != nil {
		order.ContactEmail = normalizeEmail(*req.ContactEmail)
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	result := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"shipping_full_name":   order.Shipping.FullName,
			"shipping_address":     order.Shipping.Address,
			"shipping_city":        order.Shipping.City,
			"shipping_postal_code": order.Shipping.PostalCode,
			"shipping_country":     order.Shipping.Country,
			"contact_phone":        order.ContactPhone,
			"contact_email":        order.ContactEmail,
			"notes":                order.Notes,
			"updated_at":           s.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, conflictError("order %s is no longer pending", id)
	}
	return findOrder(s.db.WithContext(ctx), id)
}

// UpdateStatus moves an order along its lifecycle. Cancelling returns the
// reserved units to stock. Delivering takes every line from stock once more,
// all lines or none.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, actor *model.Principal, id string, status model.OrderStatus) (*model.Order, error) {
	if !s.authz.CanPerform(actor, model.ActionManage, Collection(model.ResourceOrders)) {
		return nil, ErrForbidden
	}
	if !status.IsValid() {
		return nil, validationError("invalid order status %q", status)
	}

	var previous model.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findOrder(tx, id)
		if err != nil {
			return err
		}
		previous = order.Status
		if order.Status.IsTerminal() {
			return validationError("order is already %s", order.Status)
		}
		if !order.Status.CanTransitionTo(status) {
			return validationError("cannot change order status from %s to %s", order.Status, status)
		}

		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", id, order.Status).
			Updates(map[string]interface{}{"status": status, "updated_at": s.now()})
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictError("order %s was changed by another request", id)
		}

		switch status {
		case model.OrderStatusCancelled:
			return restoreItems(tx, order.Items)
		case model.OrderStatusDelivered:
			return deliverItems(tx, order.Items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditOrderStatus,
		ResourceType: model.ResourceOrders,
		ResourceID:   id,
		Before:       map[string]interface{}{"status": previous},
		After:        map[string]interface{}{"status": status},
		ChangedBy:    actor.ID,
	})
	return findOrder(s.db.WithContext(ctx), id)
}

func restoreItems(tx *gorm.DB, items []model.OrderItem) error {
	for _, item := range items {
		if err := incrementStock(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func deliverItems(tx *gorm.DB, items []model.OrderItem) error {
	for _, item := range items {
		ok, err := decrementStock(tx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		product, err := findProduct(tx, item.ProductID)
		if err != nil {
			if IsNotFound(err) {
				return insufficientStockError(item.ProductName, 0, item.Quantity)
			}
			return err
		}
		return insufficientStockError(product.Name, product.Quantity, item.Quantity)
	}
	return nil
}

// DeleteOrder deletes a pending or cancelled order. Stock is left as is.
func (s *orderServiceImpl) DeleteOrder(ctx context.Context, actor *model.Principal, id string) error {
	order, err := findOrder(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if !s.authz.CanPerform(actor, model.ActionDelete, Owned(model.ResourceOrders, order.UserID)) {
		return ErrForbidden
	}
	if !order.Status.Deletable() {
		return validationError("only pending or cancelled orders can be deleted, order is %s", order.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND status IN ?", id,
			[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusCancelled}).
			Delete(&model.Order{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictError("order %s was changed by another request", id)
		}
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditOrderDeleted,
		ResourceType: model.ResourceOrders,
		ResourceID:   id,
		Before:       map[string]interface{}{"status": order.Status, "totalAmount": order.TotalAmount},
		ChangedBy:    actor.ID,
	})
	return nil
}

func findOrder(db *gorm.DB, id string) (*model.Order, error) {
	var order model.Order
	if err := db.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("order not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}
