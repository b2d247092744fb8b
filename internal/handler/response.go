package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"medcare-admin/internal/middleware"
	"medcare-admin/internal/model"
	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusFor maps a service error kind to its HTTP status
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindInsufficientStock:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope for err. Internal errors are logged and
// their details are only exposed outside release mode.
func respondError(c *gin.Context, err error) {
	var serviceErr *service.Error
	if errors.As(err, &serviceErr) && serviceErr.Kind != service.KindInternal {
		c.JSON(statusFor(serviceErr.Kind), gin.H{"success": false, "message": serviceErr.Message})
		return
	}

	log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	body := gin.H{"success": false, "message": "Internal server error"}
	if gin.Mode() != gin.ReleaseMode {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// respondBindError writes a 400 for a request body or query that failed to bind
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": bindMessage(err)})
}

func bindMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "Invalid request body: " + err.Error()
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "min", "gte":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "category":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, strings.Join(model.Categories, ", ")))
		case "orderstatus":
			messages = append(messages, fmt.Sprintf("%s is not a valid order status", field))
		case "paymentstatus":
			messages = append(messages, fmt.Sprintf("%s is not a valid payment status", field))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(messages, "; ")
}

// respond writes a success envelope holding value under key
func respond(c *gin.Context, status int, message, key string, value interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if key != "" {
		body[key] = value
	}
	c.JSON(status, body)
}

// currentUser returns the authenticated principal, answering 401 when there is none
func currentUser(c *gin.Context) (*model.Principal, bool) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return nil, false
	}
	return user, true
}

// queryInt parses an integer query parameter, returning def when it is absent
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.Error{Kind: service.KindValidation, Message: fmt.Sprintf("%s must be an integer", name)}
	}
	return v, nil
}
