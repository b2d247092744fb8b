package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure for transport mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindInsufficientStock
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// String returns the string representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

var (
	// ErrInvalidCredentials is returned when email or password do not match
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid email or password"}

	// ErrForbidden is returned when the caller may not perform the action
	ErrForbidden = &Error{Kind: KindForbidden, Message: "you do not have permission to perform this action"}
)

// Error is a failure with a client-facing message
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and message, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func insufficientStockError(productName string, available, requested int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s: available %d, requested %d", productName, available, requested),
	}
}

// KindOf returns the kind of err, KindInternal when err is not a service error
func KindOf(err error) ErrorKind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found service error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
