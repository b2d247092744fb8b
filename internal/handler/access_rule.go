package handler

import (
	"net/http"
	"time"

	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// AccessRuleHandler manages access rules and exposes the audit log
type AccessRuleHandler struct {
	authzService *service.AuthorizationService
	audit        service.AuditLog
}

// NewAccessRuleHandler creates a new access rule handler
func NewAccessRuleHandler(authzService *service.AuthorizationService, audit service.AuditLog) *AccessRuleHandler {
	return &AccessRuleHandler{authzService: authzService, audit: audit}
}

// ListRules lists the access rules in force
func (h *AccessRuleHandler) ListRules(c *gin.Context) {
	rules, err := h.authzService.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rules), "rules": rules})
}

// CreateRule adds an access rule. It takes effect immediately.
func (h *AccessRuleHandler) CreateRule(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.AccessRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rule, err := h.authzService.AddRule(c.Request.Context(), &req, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Access rule added", "rule", rule)
}

// DeleteRule removes an access rule
func (h *AccessRuleHandler) DeleteRule(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.authzService.DeleteRule(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Access rule deleted", "", nil)
}

// GetAuditLog returns audit entries, newest first. from and to accept RFC 3339
// timestamps or dates.
func (h *AccessRuleHandler) GetAuditLog(c *gin.Context) {
	filters := service.AuditFilters{
		ResourceType: c.Query("resourceType"),
		ResourceID:   c.Query("resourceId"),
	}

	var err error
	if filters.From, err = parseTimeQuery(c, "from", false); err != nil {
		respondError(c, err)
		return
	}
	if filters.To, err = parseTimeQuery(c, "to", true); err != nil {
		respondError(c, err)
		return
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Before(filters.From) {
		respondError(c, &service.Error{Kind: service.KindValidation, Message: "to must not be before from"})
		return
	}
	if filters.Limit, err = queryInt(c, "limit", 200); err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.audit.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "entries": entries})
}

// parseTimeQuery parses a timestamp or date query parameter. A bare date used as
// an upper bound covers the whole day.
func parseTimeQuery(c *gin.Context, name string, endOfDay bool) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &service.Error{Kind: service.KindValidation, Message: name + " must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
