package model

import (
	"errors"
	"net/http"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInvalidPromoCode  = "INVALID_PROMO_CODE"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInvalidPrice      = "INVALID_PRICE"
	ErrCodeCartLineNotFound  = "CART_LINE_NOT_FOUND"
	ErrCodeEmptyOrder        = "EMPTY_ORDER"
	ErrCodeTotalMismatch     = "TOTAL_MISMATCH"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeStaleStatus       = "STALE_STATUS"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business rule violation with a stable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidPromoCode  = NewDomainError(ErrCodeInvalidPromoCode, "invalid code")
	ErrProductNotFound   = NewDomainError(ErrCodeProductNotFound, "one or more products not found")
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "quantity must be between 1 and 999")
	ErrInvalidPrice      = NewDomainError(ErrCodeInvalidPrice, "price must not be negative")
	ErrNegativeTip       = NewDomainError(ErrCodeValidation, "tip must not be negative")
	ErrAddressRequired   = NewDomainError(ErrCodeValidation, "shipping address is required")
	ErrCartLineNotFound  = NewDomainError(ErrCodeCartLineNotFound, "cart line not found")
	ErrEmptyOrder        = NewDomainError(ErrCodeEmptyOrder, "order must contain at least one item")
	ErrTotalMismatch     = NewDomainError(ErrCodeTotalMismatch, "total amount does not reconcile with order lines")
	ErrOrderNotFound     = NewDomainError(ErrCodeOrderNotFound, "order not found")
	ErrInvalidStatus     = NewDomainError(ErrCodeInvalidStatus, "unknown order status")
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "order status transition not allowed")
	ErrStaleStatus       = NewDomainError(ErrCodeStaleStatus, "order status changed concurrently")
	ErrUnauthorised      = NewDomainError(ErrCodeUnauthorised, "authentication required")
	ErrForbidden         = NewDomainError(ErrCodeForbidden, "operator role required")
)

var statusByCode = map[string]int{
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeInvalidPromoCode:  http.StatusBadRequest,
	ErrCodeProductNotFound:   http.StatusNotFound,
	ErrCodeInvalidQuantity:   http.StatusBadRequest,
	ErrCodeInvalidPrice:      http.StatusBadRequest,
	ErrCodeCartLineNotFound:  http.StatusNotFound,
	ErrCodeEmptyOrder:        http.StatusBadRequest,
	ErrCodeTotalMismatch:     http.StatusUnprocessableEntity,
	ErrCodeOrderNotFound:     http.StatusNotFound,
	ErrCodeInvalidStatus:     http.StatusBadRequest,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeStaleStatus:       http.StatusConflict,
	ErrCodeUnauthorised:      http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
}

// HTTPStatus returns the status code an API response should carry for err.
// Anything that is not a DomainError is an internal error.
func HTTPStatus(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}
