package service

import "errors"

// Errors returned by the services. Handlers map these onto HTTP statuses:
// validation errors become 400, conflicts 409, missing records 404 and
// business rule violations 422.
var (
	// Validation.
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidProductID     = errors.New("invalid product_id")
	ErrInvalidTableNumber   = errors.New("table number must be > 0")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidDiscount      = errors.New("invalid discount")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidDate          = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidTaxRate       = errors.New("tax rate must be between 0 and 100")
	ErrInvalidPeriod        = errors.New("invalid report period")

	// Conflict.
	ErrTableOccupied        = errors.New("table is already occupied")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrStatusRace           = errors.New("order status changed concurrently")

	// Not found.
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrNoActiveOrder     = errors.New("table has no active order")

	// Business rule.
	ErrProductUnavailable  = errors.New("product is not orderable")
	ErrOrderTerminal       = errors.New("order is already closed")
	ErrInsufficientPayment = errors.New("amount received does not cover the total")
	ErrSequenceExhausted   = errors.New("daily order sequence exhausted")
)
