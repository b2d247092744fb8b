package handler

import (
	"net/http"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login and user accounts
type AuthHandler struct {
	userService     service.UserService
	supplierService service.SupplierService
	authz           service.Authorizer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService service.UserService, supplierService service.SupplierService, authz service.Authorizer) *AuthHandler {
	return &AuthHandler{userService: userService, supplierService: supplierService, authz: authz}
}

// Register creates a customer account
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"token":   response.Token,
		"user":    response.User,
	})
}

// Login logs a user in
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   response.Token,
		"user":    response.User,
	})
}

// Me returns the account behind the current token
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role == model.RoleSupplier {
		supplier, err := h.supplierService.GetSupplier(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "", "user", supplier)
		return
	}

	account, err := h.userService.GetUserByID(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "user", account)
}

// ListUsers lists users, filtered by role and search text
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), service.UserFilters{
		Role:   c.Query("role"),
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}

// GetUser returns a user to itself or an admin
func (h *AuthHandler) GetUser(c *gin.Context) {
	if !h.allowUser(c, model.ActionRead) {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", "user", user)
}

// UpdateUser updates a user. Only callers who manage users may change roles.
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	if !h.allowUser(c, model.ActionUpdate) {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor, _ := currentUser(c)
	if req.Role != nil && !h.authz.CanPerform(actor, model.ActionManage, service.Collection(model.ResourceUsers)) {
		respondError(c, service.ErrForbidden)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated", "user", user)
}

// DeleteUser deletes a user
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	if !h.allowUser(c, model.ActionDelete) {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted", "", nil)
}

// allowUser checks action on the user named by the :id parameter
func (h *AuthHandler) allowUser(c *gin.Context, action string) bool {
	actor, ok := currentUser(c)
	if !ok {
		return false
	}
	if !h.authz.CanPerform(actor, action, service.Owned(model.ResourceUsers, c.Param("id"))) {
		respondError(c, service.ErrForbidden)
		return false
	}
	return true
}
