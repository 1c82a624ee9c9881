package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrSizeNotFound        = errors.New("size not found")
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrSessionRequired     = errors.New("session id required")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrValidation          = errors.New("validation failed")
)

// InsufficientAvailabilityError is returned when a reservation asks for more
// than total stock minus the live holds of other sessions.
type InsufficientAvailabilityError struct {
	Requested int
	Available int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientAvailabilityError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientStockError is returned by order placement when persistent stock
// cannot cover a line. No reservations are taken into account there.
type InsufficientStockError struct {
	ProductName string
	SizeName    string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item(), e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func (e *InsufficientStockError) Item() string {
	if e.SizeName == "" {
		return e.ProductName
	}
	return e.ProductName + " (Size: " + e.SizeName + ")"
}

// UserMessage is the text shown to shoppers.
func (e *InsufficientStockError) UserMessage() string {
	if e.Available <= 0 {
		return fmt.Sprintf("Sorry, %s is out of stock.", e.Item())
	}
	return fmt.Sprintf("Sorry, only %d of %s left in stock. You requested %d.", e.Available, e.Item(), e.Requested)
}

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
