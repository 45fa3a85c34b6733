// Package apperrors holds the error taxonomy shared by the cart, checkout
// and payment handlers. Handlers translate these into HTTP responses; any
// other error is treated as an internal failure and reported opaquely.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrCartNotFound        = errors.New("cart not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrProviderUnavailable = errors.New("payment provider is not configured")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing or invalid field: " + e.Field
}

// InsufficientStockError carries the offending product name so the client
// can tell the shopper which line to fix.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}
