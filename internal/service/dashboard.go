package service

import (
	"context"
	"fmt"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/pricing"

	"gorm.io/gorm"
)

// DashboardStats summarises the store for the admin dashboard
type DashboardStats struct {
	TotalUsers        int64                       `json:"totalUsers"`
	TotalSuppliers    int64                       `json:"totalSuppliers"`
	TotalProducts     int64                       `json:"totalProducts"`
	HiddenProducts    int64                       `json:"hiddenProducts"`
	OutOfStock        int64                       `json:"outOfStock"`
	LowStock          int64                       `json:"lowStock"`
	ExpiringSoon      int64                       `json:"expiringSoon"`
	TotalOrders       int64                       `json:"totalOrders"`
	OrdersByStatus    map[model.OrderStatus]int64 `json:"ordersByStatus"`
	Revenue           float64                     `json:"revenue"`
	InventoryValue    float64                     `json:"inventoryValue"`
	PendingPayments   int64                       `json:"pendingPayments"`
	LowStockThreshold int                         `json:"lowStockThreshold"`
	ExpiryWindowDays  int                         `json:"expiryWindowDays"`
}

// DashboardService computes dashboard statistics
type DashboardService struct {
	db                *gorm.DB
	lowStockThreshold int
	expiryWindowDays  int
	now               func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, lowStockThreshold, expiryWindowDays int) *DashboardService {
	return &DashboardService{
		db:                db,
		lowStockThreshold: lowStockThreshold,
		expiryWindowDays:  expiryWindowDays,
		now:               time.Now,
	}
}

// Stats returns the current statistics. Revenue counts delivered orders only.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{
		OrdersByStatus:    map[model.OrderStatus]int64{},
		LowStockThreshold: s.lowStockThreshold,
		ExpiryWindowDays:  s.expiryWindowDays,
	}

	counts := []struct {
		name  string
		query *gorm.DB
		dest  *int64
	}{
		{"users", db.Model(&model.User{}), &stats.TotalUsers},
		{"suppliers", db.Model(&model.Supplier{}), &stats.TotalSuppliers},
		{"products", db.Model(&model.Product{}), &stats.TotalProducts},
		{"hidden products", db.Model(&model.Product{}).Where("visible = ?", false), &stats.HiddenProducts},
		{"out of stock products", db.Model(&model.Product{}).Where("out_of_stock = ?", true), &stats.OutOfStock},
		{"low stock products", db.Model(&model.Product{}).Where("quantity <= ?", s.lowStockThreshold), &stats.LowStock},
		{"expiring products", db.Model(&model.Product{}).Where("expiry_date <= ?", s.now().AddDate(0, 0, s.expiryWindowDays)), &stats.ExpiringSoon},
		{"orders", db.Model(&model.Order{}), &stats.TotalOrders},
		{"pending payments", db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPending), &stats.PendingPayments},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	var byStatus []struct {
		Status model.OrderStatus
		Count  int64
	}
	if err := db.Model(&model.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	var revenue, inventoryValue float64
	if err := db.Model(&model.Order{}).
		Where("status = ?", model.OrderStatusDelivered).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(price * quantity), 0)").Scan(&inventoryValue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum inventory value: %w", err)
	}
	stats.Revenue = pricing.Round(revenue)
	stats.InventoryValue = pricing.Round(inventoryValue)

	return stats, nil
}
