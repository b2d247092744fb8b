package service_test

import (
	"context"
	"testing"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	a := f.product(t, "Mask", 20, 2)
	f.product(t, "Gloves", 3, 5, hidden())
	f.product(t, "Empty", 0, 1)

	delivered, err := f.orders.CreateOrder(ctx, customer, orderFor("Alice", line(a.ID, 2)))
	require.NoError(t, err)
	for _, status := range []model.OrderStatus{model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered} {
		_, err = f.orders.UpdateStatus(ctx, f.admin, delivered.ID, status)
		require.NoError(t, err)
	}
	pending, err := f.orders.CreateOrder(ctx, customer, orderFor("Alice", line(a.ID, 1)))
	require.NoError(t, err)
	_, err = f.payments.CreateIntent(ctx, customer, &model.PaymentIntentRequest{OrderID: pending.ID, Method: model.PaymentMethodCOD})
	require.NoError(t, err)

	stats, err := service.NewDashboardService(f.db, 5, 30).Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.TotalUsers)
	assert.EqualValues(t, 3, stats.TotalProducts)
	assert.EqualValues(t, 1, stats.HiddenProducts)
	assert.EqualValues(t, 1, stats.OutOfStock)
	assert.EqualValues(t, 2, stats.LowStock)
	assert.EqualValues(t, 0, stats.ExpiringSoon)
	assert.EqualValues(t, 2, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.OrdersByStatus[model.OrderStatusDelivered])
	assert.EqualValues(t, 1, stats.OrdersByStatus[model.OrderStatusPending])
	assert.Equal(t, 4.0, stats.Revenue)
	// 15 masks at 2 plus 3 gloves at 5
	assert.Equal(t, 45.0, stats.InventoryValue)
	assert.EqualValues(t, 1, stats.PendingPayments)
	assert.Equal(t, 5, stats.LowStockThreshold)
}
