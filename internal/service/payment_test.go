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

func (f *fixture) pendingOrder(t *testing.T, customer *model.Principal) *model.Order {
	t.Helper()

	product := f.product(t, "Mask", 10, 2.25)
	order, err := f.orders.CreateOrder(context.Background(), customer, orderFor(customer.Name, line(product.ID, 2)))
	require.NoError(t, err)
	return order
}

func card(number string) *model.CardDetails {
	return &model.CardDetails{
		Number:   number,
		Holder:   " Alice Smith ",
		ExpMonth: 12,
		ExpYear:  time.Now().Year() + 2,
		CVC:      "123",
	}
}

func TestCardPaymentIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	order := f.pendingOrder(t, customer)

	payment, err := f.payments.CreateIntent(ctx, customer, &model.PaymentIntentRequest{
		OrderID: order.ID,
		Method:  model.PaymentMethodCard,
		Card:    card("4111 1111 1111 1111"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, order.TotalAmount, payment.Amount)
	assert.Equal(t, customer.ID, payment.UserID)
	assert.Equal(t, "visa", payment.CardBrand)
	assert.Equal(t, "1111", payment.CardLast4)
	assert.Equal(t, "Alice Smith", payment.CardHolder)
	assert.NotEmpty(t, payment.IntentReference)
}

func TestCardBrands(t *testing.T) {
	tests := []struct {
		number string
		brand  string
	}{
		{"4242424242424242", "visa"},
		{"5555-5555-5555-4444", "mastercard"},
		{"2223003122003222", "mastercard"},
		{"378282246310005", "amex"},
		{"6011111111111117", "discover"},
		{"3566002020360505", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.brand+" "+tt.number, func(t *testing.T) {
			f := newFixture(t)
			customer := f.customer(t, "alice")
			order := f.pendingOrder(t, customer)

			payment, err := f.payments.CreateIntent(context.Background(), customer, &model.PaymentIntentRequest{
				OrderID: order.ID,
				Method:  model.PaymentMethodCard,
				Card:    card(tt.number),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.brand, payment.CardBrand)
		})
	}
}

func TestCardValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	order := f.pendingOrder(t, customer)

	expired := card("4111111111111111")
	expired.ExpYear = time.Now().Year() - 1

	shortYear := card("4111111111111111")
	shortYear.ExpYear = 10

	badMonth := card("4111111111111111")
	badMonth.ExpMonth = 13

	tests := []struct {
		name string
		card *model.CardDetails
	}{
		{"missing card", nil},
		{"failed checksum", card("4111111111111112")},
		{"too short", card("42424242")},
		{"letters", card("4111-1111-abcd-1111")},
		{"expired", expired},
		{"expired two digit year", shortYear},
		{"bad month", badMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.payments.CreateIntent(ctx, customer, &model.PaymentIntentRequest{
				OrderID: order.ID,
				Method:  model.PaymentMethodCard,
				Card:    tt.card,
			})
			requireKind(t, err, service.KindValidation)
		})
	}

	_, err := f.payments.CreateIntent(ctx, customer, &model.PaymentIntentRequest{OrderID: order.ID, Method: "barter"})
	requireKind(t, err, service.KindValidation)
}

func TestOneActivePaymentPerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	order := f.pendingOrder(t, customer)
	cod := &model.PaymentIntentRequest{OrderID: order.ID, Method: model.PaymentMethodCOD}

	first, err := f.payments.CreateIntent(ctx, customer, cod)
	require.NoError(t, err)

	_, err = f.payments.CreateIntent(ctx, customer, cod)
	requireKind(t, err, service.KindConflict)

	_, err = f.payments.UpdateStatus(ctx, f.admin, first.ID, model.PaymentStatusFailed)
	require.NoError(t, err)

	second, err := f.payments.CreateIntent(ctx, customer, cod)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	payments, err := f.payments.ListPayments(ctx, customer, service.PaymentFilters{OrderID: order.ID})
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestPaymentRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	order := f.pendingOrder(t, customer)

	_, err := f.orders.UpdateStatus(ctx, f.admin, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = f.payments.CreateIntent(ctx, customer, &model.PaymentIntentRequest{OrderID: order.ID, Method: model.PaymentMethodCOD})
	requireKind(t, err, service.KindValidation)
}

func TestPaymentStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	order := f.pendingOrder(t, customer)

	payment, err := f.payments.CreateIntent(ctx, customer, &model.PaymentIntentRequest{OrderID: order.ID, Method: model.PaymentMethodCOD})
	require.NoError(t, err)

	_, err = f.payments.UpdateStatus(ctx, customer, payment.ID, model.PaymentStatusCompleted)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.payments.UpdateStatus(ctx, f.admin, payment.ID, model.PaymentStatusRefunded)
	requireKind(t, err, service.KindValidation)

	completed, err := f.payments.UpdateStatus(ctx, f.admin, payment.ID, model.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, completed.Status)

	refunded, err := f.payments.UpdateStatus(ctx, f.admin, payment.ID, model.PaymentStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, refunded.Status)

	_, err = f.payments.UpdateStatus(ctx, f.admin, payment.ID, model.PaymentStatusPending)
	requireKind(t, err, service.KindValidation)

	_, err = f.payments.UpdateStatus(ctx, f.admin, payment.ID, "lost")
	requireKind(t, err, service.KindValidation)
}

func TestPaymentOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.customer(t, "alice")
	bob := f.customer(t, "bob")
	order := f.pendingOrder(t, alice)

	_, err := f.payments.CreateIntent(ctx, bob, &model.PaymentIntentRequest{OrderID: order.ID, Method: model.PaymentMethodCOD})
	assert.ErrorIs(t, err, service.ErrForbidden)

	payment, err := f.payments.CreateIntent(ctx, alice, &model.PaymentIntentRequest{OrderID: order.ID, Method: model.PaymentMethodCOD})
	require.NoError(t, err)

	_, err = f.payments.GetPayment(ctx, bob, payment.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	own, err := f.payments.ListPayments(ctx, bob, service.PaymentFilters{})
	require.NoError(t, err)
	assert.Empty(t, own)

	all, err := f.payments.ListPayments(ctx, f.admin, service.PaymentFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
