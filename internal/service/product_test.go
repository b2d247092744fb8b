package service_test

import (
	"context"
	"testing"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.product(t, "Paracetamol", 0, 3.456)
	assert.Equal(t, 3.46, product.Price)
	assert.True(t, product.Visible)
	assert.True(t, product.OutOfStock)

	tests := []struct {
		name   string
		modify func(r *model.ProductRequest)
	}{
		{"empty name", func(r *model.ProductRequest) { r.Name = "  " }},
		{"unknown category", func(r *model.ProductRequest) { r.Category = "snacks" }},
		{"zero price", func(r *model.ProductRequest) { r.Price = 0 }},
		{"negative quantity", func(r *model.ProductRequest) { r.Quantity = -1 }},
		{"past expiry", func(r *model.ProductRequest) { r.ExpiryDate = time.Now().AddDate(0, 0, -1) }},
		{"unknown supplier", func(r *model.ProductRequest) {
			id := "missing"
			r.SupplierID = &id
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &model.ProductRequest{
				Name:       "Ibuprofen",
				Price:      4,
				Quantity:   10,
				Category:   model.CategoryOTCMedicine,
				ExpiryDate: time.Now().AddDate(1, 0, 0),
			}
			tt.modify(req)
			_, err := f.products.CreateProduct(ctx, req, f.admin.ID)
			requireKind(t, err, service.KindValidation)
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, "Bandage", 10, 2)

	updated, err := f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{Quantity: intPtr(0)}, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.True(t, updated.OutOfStock)

	updated, err = f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{Adjustment: intPtr(7)}, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.False(t, updated.OutOfStock)

	updated, err = f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{Adjustment: intPtr(-3)}, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{Adjustment: intPtr(-5)}, f.admin.ID)
	requireKind(t, err, service.KindInsufficientStock)
	assert.Equal(t, 4, f.reload(t, product.ID).Quantity)

	_, err = f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{}, f.admin.ID)
	requireKind(t, err, service.KindValidation)
	_, err = f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{Quantity: intPtr(1), Adjustment: intPtr(1)}, f.admin.ID)
	requireKind(t, err, service.KindValidation)
	_, err = f.products.UpdateQuantity(ctx, product.ID, &model.QuantityRequest{Quantity: intPtr(-1)}, f.admin.ID)
	requireKind(t, err, service.KindValidation)

	entries, err := f.audit.List(ctx, service.AuditFilters{ResourceType: model.ResourceProducts, ResourceID: product.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestUpdateProductKeepsPastExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, "Old Stock", 3, 2)

	// simulate a product whose expiry has passed since it was stocked
	past := time.Now().AddDate(0, 0, -2).Truncate(time.Second)
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", product.ID).Update("expiry_date", past).Error)
	stored := f.reload(t, product.ID)

	req := &model.ProductRequest{
		Name:       "Old Stock",
		Price:      1.5,
		Quantity:   3,
		Category:   model.CategoryOTCMedicine,
		ExpiryDate: stored.ExpiryDate,
	}
	updated, err := f.products.UpdateProduct(ctx, product.ID, req, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, updated.Price)

	req.ExpiryDate = past.AddDate(0, 0, -1)
	_, err = f.products.UpdateProduct(ctx, product.ID, req, f.admin.ID)
	requireKind(t, err, service.KindValidation)
}

func TestHiddenProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shown := f.product(t, "Shown", 5, 1)
	secret := f.product(t, "Secret", 5, 1, hidden())

	_, err := f.products.GetProduct(ctx, secret.ID, false)
	requireKind(t, err, service.KindNotFound)
	got, err := f.products.GetProduct(ctx, secret.ID, true)
	require.NoError(t, err)
	assert.False(t, got.Visible)

	public, err := f.products.ListProducts(ctx, service.ProductFilters{})
	require.NoError(t, err)
	require.Len(t, public.Products, 1)
	assert.Equal(t, shown.ID, public.Products[0].ID)

	admin, err := f.products.ListProducts(ctx, service.ProductFilters{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, 2, admin.TotalItems)

	updated, err := f.products.SetVisibility(ctx, secret.ID, true, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, updated.Visible)
	_, err = f.products.GetProduct(ctx, secret.ID, false)
	require.NoError(t, err)
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "Vitamin D", 5, 8)
	f.product(t, "Vitamin C", 5, 4)
	f.product(t, "Aspirin", 5, 2)

	found, err := f.products.ListProducts(ctx, service.ProductFilters{Search: "vitamin"})
	require.NoError(t, err)
	assert.Equal(t, 2, found.TotalItems)

	cheap, err := f.products.ListProducts(ctx, service.ProductFilters{MaxPrice: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, cheap.TotalItems)

	paged, err := f.products.ListProducts(ctx, service.ProductFilters{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Products, 1)
	assert.Equal(t, 2, paged.TotalPages)

	none, err := f.products.ListProducts(ctx, service.ProductFilters{Category: model.CategoryBabyCare})
	require.NoError(t, err)
	assert.Empty(t, none.Products)
	assert.Equal(t, 1, none.TotalPages)
}

func TestLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "Plenty", 50, 1)
	f.product(t, "Few", 3, 1)
	f.product(t, "Edge", 10, 1)
	f.product(t, "None", 0, 1, hidden())

	products, err := f.products.LowStock(ctx, 10)
	require.NoError(t, err)
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"None", "Few", "Edge"}, names)

	_, err = f.products.LowStock(ctx, -1)
	requireKind(t, err, service.KindValidation)
}

func TestExpiring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "Fresh", 5, 1)
	soon := f.product(t, "Soon", 5, 1)
	expired := f.product(t, "Expired", 5, 1)

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", soon.ID).
		Update("expiry_date", time.Now().AddDate(0, 0, 10)).Error)
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", expired.ID).
		Update("expiry_date", time.Now().AddDate(0, 0, -3)).Error)

	products, err := f.products.Expiring(ctx, 30)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, expired.ID, products[0].ID)
	assert.Equal(t, soon.ID, products[1].ID)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, "Bandage", 1, 1)

	require.NoError(t, f.products.DeleteProduct(ctx, product.ID, f.admin.ID))
	requireKind(t, f.products.DeleteProduct(ctx, product.ID, f.admin.ID), service.KindNotFound)
}
