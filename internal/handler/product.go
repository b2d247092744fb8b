package handler

import (
	"net/http"
	"strconv"

	"medcare-admin/internal/middleware"
	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductHandler handles the product catalog and inventory
type ProductHandler struct {
	productService    service.ProductService
	authz             service.Authorizer
	lowStockThreshold int
	expiryWindowDays  int
}

// NewProductHandler creates a new product handler. The thresholds are the
// defaults of the low-stock and expiring queries.
func NewProductHandler(productService service.ProductService, authz service.Authorizer, lowStockThreshold, expiryWindowDays int) *ProductHandler {
	return &ProductHandler{
		productService:    productService,
		authz:             authz,
		lowStockThreshold: lowStockThreshold,
		expiryWindowDays:  expiryWindowDays,
	}
}

// GetProducts lists visible products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	h.listProducts(c, false)
}

// GetAllProducts lists every product, hidden ones included
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	h.listProducts(c, true)
}

func (h *ProductHandler) listProducts(c *gin.Context, includeHidden bool) {
	filters := service.ProductFilters{
		Category:      c.Query("category"),
		Search:        c.Query("search"),
		SupplierID:    c.Query("supplierId"),
		IncludeHidden: includeHidden,
	}

	// paging
	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filters.Page = p
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			filters.Limit = l
		}
	}

	// price range
	if minPrice := c.Query("minPrice"); minPrice != "" {
		if price, err := strconv.ParseFloat(minPrice, 64); err == nil {
			filters.MinPrice = price
		}
	}
	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		if price, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			filters.MaxPrice = price
		}
	}

	page, err := h.productService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"products":   page.Products,
		"page":       page.Page,
		"limit":      page.Limit,
		"totalPages": page.TotalPages,
		"totalItems": page.TotalItems,
	})
}

// GetProduct returns a product. Hidden products are only shown to callers who
// may see every product.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	includeHidden := false
	if user, ok := middleware.GetUserFromContext(c); ok {
		includeHidden = h.authz.CanPerform(user, model.ActionManage, service.Collection(model.ResourceProducts))
	}

	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"), includeHidden)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "product", product)
}

// CreateProduct creates a product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created", "product", product)
}

// UpdateProduct updates a product
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("id"), &req, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated", "product", product)
}

// DeleteProduct deletes a product
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted", "", nil)
}

// UpdateQuantity sets or adjusts the stock level
func (h *ProductHandler) UpdateQuantity(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.UpdateQuantity(c.Request.Context(), c.Param("id"), &req, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Quantity updated", "product", product)
}

// SetVisibility shows or hides a product
func (h *ProductHandler) SetVisibility(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.productService.SetVisibility(c.Request.Context(), c.Param("id"), *req.Visible, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Visibility updated", "product", product)
}

// LowStock lists products at or below the threshold query parameter
func (h *ProductHandler) LowStock(c *gin.Context) {
	threshold, err := queryInt(c, "threshold", h.lowStockThreshold)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.productService.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "threshold": threshold, "count": len(products), "products": products})
}

// Expiring lists products expiring within the days query parameter
func (h *ProductHandler) Expiring(c *gin.Context) {
	days, err := queryInt(c, "days", h.expiryWindowDays)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.productService.Expiring(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "days": days, "count": len(products), "products": products})
}
