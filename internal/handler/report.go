package handler

import (
	"bytes"
	"net/http"

	"medcare-admin/internal/model"
	"medcare-admin/internal/report"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves PDF reports and dashboard statistics
type ReportHandler struct {
	productService    service.ProductService
	orderService      service.OrderService
	supplierService   service.SupplierService
	dashboard         *service.DashboardService
	generator         *report.Generator
	lowStockThreshold int
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	productService service.ProductService,
	orderService service.OrderService,
	supplierService service.SupplierService,
	dashboard *service.DashboardService,
	generator *report.Generator,
	lowStockThreshold int,
) *ReportHandler {
	return &ReportHandler{
		productService:    productService,
		orderService:      orderService,
		supplierService:   supplierService,
		dashboard:         dashboard,
		generator:         generator,
		lowStockThreshold: lowStockThreshold,
	}
}

// Inventory serves the inventory report
func (h *ReportHandler) Inventory(c *gin.Context) {
	products, err := h.productService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.generator.Inventory(&buf, products, h.lowStockThreshold); err != nil {
		respondError(c, err)
		return
	}
	h.sendPDF(c, report.KindInventory, &buf)
}

// Orders serves the orders report
func (h *ReportHandler) Orders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), user, service.OrderFilters{
		Status: model.OrderStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.generator.Orders(&buf, orders); err != nil {
		respondError(c, err)
		return
	}
	h.sendPDF(c, report.KindOrders, &buf)
}

// Suppliers serves the suppliers report
func (h *ReportHandler) Suppliers(c *gin.Context) {
	suppliers, err := h.supplierService.ListSuppliers(c.Request.Context(), "")
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.generator.Suppliers(&buf, suppliers); err != nil {
		respondError(c, err)
		return
	}
	h.sendPDF(c, report.KindSuppliers, &buf)
}

// DashboardStats returns the dashboard statistics
func (h *ReportHandler) DashboardStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "stats", stats)
}

// sendPDF writes a rendered report. Rendering happens before any byte is sent
// so failures still get the JSON error envelope.
func (h *ReportHandler) sendPDF(c *gin.Context, kind string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", `attachment; filename="`+h.generator.Filename(kind)+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
