package handler

import (
	"net/http"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payments
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateIntent records a payment intent for an order
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.paymentService.CreateIntent(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Payment intent created", "payment", payment)
}

// ListPayments lists all payments for admins and the caller's own otherwise
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), user, service.PaymentFilters{
		Status:  c.Query("status"),
		OrderID: c.Query("orderId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(payments), "payments": payments})
}

// GetPayment returns a payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "payment", payment)
}

// UpdateStatus changes the status of a payment
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.paymentService.UpdateStatus(c.Request.Context(), user, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment status updated", "payment", payment)
}
