package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the sales domain. Use errors.Is() to check these.
var (
	// ErrValidation is the parent of every request-shape failure.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyOrder indicates an order was requested with no line items.
	ErrEmptyOrder = fmt.Errorf("%w: order must contain at least one item", ErrValidation)

	// ErrInvalidQuantity indicates a line item quantity that is not positive.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)

	// ErrInvalidProduct indicates product fields that violate domain constraints.
	ErrInvalidProduct = fmt.Errorf("%w: invalid product", ErrValidation)

	// ErrProductNotFound indicates a referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInsufficientStock is matched by every *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderAlreadyCancelled indicates a cancel of an order that is already CANCELLED.
	ErrOrderAlreadyCancelled = errors.New("order is already cancelled")

	// ErrInvalidTransition indicates a status change the order state machine forbids.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrProductInUse indicates a delete of a product still referenced by order items.
	ErrProductInUse = errors.New("product is referenced by existing orders")

	// ErrLockTimeout indicates a row lock could not be acquired in time.
	// The whole operation was rolled back and may be retried.
	ErrLockTimeout = errors.New("timed out waiting for inventory lock")

	// ErrRowNotLocked indicates a ledger mutation on a row the transaction did not lock.
	ErrRowNotLocked = errors.New("inventory row not locked in this transaction")

	// ErrStoreFailure indicates the persistent store failed to complete the operation.
	ErrStoreFailure = errors.New("store failure")
)

// InsufficientStockError reports the first line item that could not be satisfied.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("Insufficient stock for product %s. Available: %d, Requested: %d", name, e.Available, e.Requested)
}

// Is makes errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// IsRetryable reports whether the failed operation can be retried unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
