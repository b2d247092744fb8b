package handler

import (
	"net/http"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// SupplierHandler handles supplier accounts and catalogs
type SupplierHandler struct {
	supplierService service.SupplierService
	authz           service.Authorizer
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(supplierService service.SupplierService, authz service.Authorizer) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService, authz: authz}
}

// Register creates a supplier account
func (h *SupplierHandler) Register(c *gin.Context) {
	var req model.SupplierRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.supplierService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Supplier registered",
		"token":    response.Token,
		"supplier": response.User,
	})
}

// Login logs a supplier in
func (h *SupplierHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.supplierService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    response.Token,
		"supplier": response.User,
	})
}

// ListSuppliers lists every supplier with its catalog
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.supplierService.ListSuppliers(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(suppliers), "suppliers": suppliers})
}

// GetSupplier returns a supplier to itself or an admin
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	if !h.allow(c, model.ResourceSuppliers, model.ActionRead) {
		return
	}

	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "supplier", supplier)
}

// UpdateSupplier updates a supplier
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	if !h.allow(c, model.ResourceSuppliers, model.ActionUpdate) {
		return
	}

	var req model.SupplierUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Supplier updated", "supplier", supplier)
}

// DeleteSupplier deletes a supplier whose catalog is empty
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	if err := h.supplierService.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Supplier deleted", "", nil)
}

// AddProduct adds a catalog entry
func (h *SupplierHandler) AddProduct(c *gin.Context) {
	if !h.allow(c, model.ResourceSupplierProducts, model.ActionCreate) {
		return
	}

	var req model.SupplierProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.supplierService.AddProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product added", "product", product)
}

// UpdateProduct replaces a catalog entry
func (h *SupplierHandler) UpdateProduct(c *gin.Context) {
	if !h.allow(c, model.ResourceSupplierProducts, model.ActionUpdate) {
		return
	}

	var req model.SupplierProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.supplierService.UpdateProduct(c.Request.Context(), c.Param("id"), c.Param("productId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated", "product", product)
}

// DeleteProduct removes a catalog entry
func (h *SupplierHandler) DeleteProduct(c *gin.Context) {
	if !h.allow(c, model.ResourceSupplierProducts, model.ActionDelete) {
		return
	}

	if err := h.supplierService.DeleteProduct(c.Request.Context(), c.Param("id"), c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product removed", "", nil)
}

// TransferProduct moves a catalog entry into inventory
func (h *SupplierHandler) TransferProduct(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.supplierService.TransferProduct(c.Request.Context(), c.Param("id"), c.Param("productId"), &req, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product transferred to inventory", "product", product)
}

// allow checks action on a resource owned by the supplier named by :id
func (h *SupplierHandler) allow(c *gin.Context, resourceType, action string) bool {
	actor, ok := currentUser(c)
	if !ok {
		return false
	}
	if !h.authz.CanPerform(actor, action, service.Owned(resourceType, c.Param("id"))) {
		respondError(c, service.ErrForbidden)
		return false
	}
	return true
}
