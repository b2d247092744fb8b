package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medcare-admin/internal/model"

	"gorm.io/gorm"
)

// PaymentService records payment intents against orders
type PaymentService interface {
	CreateIntent(ctx context.Context, actor *model.Principal, req *model.PaymentIntentRequest) (*model.Payment, error)
	GetPayment(ctx context.Context, actor *model.Principal, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, actor *model.Principal, filters PaymentFilters) ([]model.Payment, error)
	UpdateStatus(ctx context.Context, actor *model.Principal, id, status string) (*model.Payment, error)
}

// PaymentFilters are the payment listing filters
type PaymentFilters struct {
	Status  string
	OrderID string
}

// paymentTransitions lists the statuses reachable from each payment status
var paymentTransitions = map[string][]string{
	model.PaymentStatusPending:   {model.PaymentStatusCompleted, model.PaymentStatusFailed},
	model.PaymentStatusFailed:    {model.PaymentStatusPending},
	model.PaymentStatusCompleted: {model.PaymentStatusRefunded},
}

type paymentServiceImpl struct {
	db    *gorm.DB
	authz Authorizer
	audit AuditLog
	now   func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, authz Authorizer, audit AuditLog) PaymentService {
	return &paymentServiceImpl{db: db, authz: authz, audit: audit, now: time.Now}
}

// CreateIntent records a pending payment for the full order amount. Card
// numbers are checked and only their brand and last four digits are kept.
func (s *paymentServiceImpl) CreateIntent(ctx context.Context, actor *model.Principal, req *model.PaymentIntentRequest) (*model.Payment, error) {
	order, err := findOrder(s.db.WithContext(ctx), req.OrderID)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanPerform(actor, model.ActionCreate, Owned(model.ResourcePayments, order.UserID)) {
		return nil, ErrForbidden
	}
	if order.Status == model.OrderStatusCancelled {
		return nil, validationError("order %s is cancelled", order.ID)
	}

	var active int64
	err = s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status IN ?", order.ID, []string{model.PaymentStatusPending, model.PaymentStatusCompleted}).
		Count(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check payments: %w", err)
	}
	if active > 0 {
		return nil, conflictError("order %s already has an active payment", order.ID)
	}

	payment := &model.Payment{
		OrderID: order.ID,
		UserID:  order.UserID,
		Amount:  order.TotalAmount,
		Method:  req.Method,
		Status:  model.PaymentStatusPending,
	}

	switch req.Method {
	case model.PaymentMethodCOD:
	case model.PaymentMethodCard:
		if req.Card == nil {
			return nil, validationError("card details are required for card payments")
		}
		if err := s.applyCard(payment, req.Card); err != nil {
			return nil, err
		}
	default:
		return nil, validationError("unsupported payment method %q", req.Method)
	}

	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

func (s *paymentServiceImpl) applyCard(payment *model.Payment, card *model.CardDetails) error {
	number := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, card.Number)

	if len(number) < 12 || len(number) > 19 || !luhnValid(number) {
		return validationError("invalid card number")
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return validationError("invalid card expiry month")
	}

	now := s.now()
	year := card.ExpYear
	if year < 100 {
		year += 2000
	}
	if year < now.Year() || (year == now.Year() && card.ExpMonth < int(now.Month())) {
		return validationError("card has expired")
	}

	payment.CardBrand = cardBrand(number)
	payment.CardLast4 = number[len(number)-4:]
	payment.CardHolder = strings.TrimSpace(card.Holder)
	payment.CardExpMonth = card.ExpMonth
	payment.CardExpYear = year
	return nil
}

// luhnValid reports whether number is all digits and passes the Luhn checksum
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case len(number) >= 2 && number[:2] >= "51" && number[:2] <= "55":
		return "mastercard"
	case len(number) >= 4 && number[:4] >= "2221" && number[:4] <= "2720":
		return "mastercard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	case strings.HasPrefix(number, "6011"), strings.HasPrefix(number, "65"):
		return "discover"
	default:
		return "unknown"
	}
}

// GetPayment returns a payment
func (s *paymentServiceImpl) GetPayment(ctx context.Context, actor *model.Principal, id string) (*model.Payment, error) {
	payment, err := findPayment(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanPerform(actor, model.ActionRead, Owned(model.ResourcePayments, payment.UserID)) {
		return nil, ErrForbidden
	}
	return payment, nil
}

// ListPayments returns every payment to callers who may read all payments and
// the caller's own payments otherwise
func (s *paymentServiceImpl) ListPayments(ctx context.Context, actor *model.Principal, filters PaymentFilters) ([]model.Payment, error) {
	query := s.db.WithContext(ctx).Model(&model.Payment{})

	switch {
	case s.authz.CanPerform(actor, model.ActionRead, Collection(model.ResourcePayments)):
	case s.authz.HasPermission(actor, model.ActionRead, model.ResourcePayments):
		query = query.Where("user_id = ?", actor.ID)
	default:
		return nil, ErrForbidden
	}

	if filters.Status != "" {
		if !model.IsValidPaymentStatus(filters.Status) {
			return nil, validationError("invalid payment status %q", filters.Status)
		}
		query = query.Where("status = ?", filters.Status)
	}
	if filters.OrderID != "" {
		query = query.Where("order_id = ?", filters.OrderID)
	}

	var payments []model.Payment
	if err := query.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// UpdateStatus settles, fails, retries or refunds a payment
func (s *paymentServiceImpl) UpdateStatus(ctx context.Context, actor *model.Principal, id, status string) (*model.Payment, error) {
	if !s.authz.CanPerform(actor, model.ActionManage, Collection(model.ResourcePayments)) {
		return nil, ErrForbidden
	}
	if !model.IsValidPaymentStatus(status) {
		return nil, validationError("invalid payment status %q", status)
	}

	payment, err := findPayment(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !canTransitionPayment(payment.Status, status) {
		return nil, validationError("cannot change payment status from %s to %s", payment.Status, status)
	}

	result := s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, payment.Status).
		Updates(map[string]interface{}{"status": status, "updated_at": s.now()})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, conflictError("payment %s was changed by another request", id)
	}

	recordAudit(ctx, s.audit, model.AuditEntry{
		Action:       model.AuditPaymentStatus,
		ResourceType: model.ResourcePayments,
		ResourceID:   id,
		Before:       map[string]string{"status": payment.Status},
		After:        map[string]string{"status": status},
		ChangedBy:    actor.ID,
	})

	payment.Status = status
	return payment, nil
}

func canTransitionPayment(from, to string) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func findPayment(db *gorm.DB, id string) (*model.Payment, error) {
	var payment model.Payment
	if err := db.Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("payment not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}
