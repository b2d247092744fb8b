package handler

import (
	"net/http"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles orders
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder places an order for the current user
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed", "order", order)
}

// ListOrders lists all orders for admins and the caller's own orders otherwise
func (h *OrderHandler) ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), user, service.OrderFilters{
		Status: model.OrderStatus(c.Query("status")),
		UserID: c.Query("userId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

// GetOrder returns an order
func (h *OrderHandler) GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "order", order)
}

// UpdateOrder edits the delivery details of a pending order
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), user, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order updated", "order", order)
}

// UpdateStatus changes the status of an order
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), user, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated to "+string(order.Status), "order", order)
}

// DeleteOrder deletes a pending or cancelled order
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order deleted", "", nil)
}
