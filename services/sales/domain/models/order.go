package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/salesledger/services/sales/domain"
)

// Status is the lifecycle state of an Order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// validNext lists the permitted transitions out of each status.
// CANCELLED is terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {StatusCancelled: true},
	StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// OrderItem is one line of an Order. UnitPrice is the product price captured
// at reservation time and never recomputed.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	CreatedAt time.Time

	// Product is the resolved product for display. Nil unless hydrated.
	Product *Product
}

// Order is the aggregate root for a customer purchase. Items are owned by
// the order and are only persisted together with it.
type Order struct {
	ID        uuid.UUID
	Items     []OrderItem
	Total     decimal.Decimal
	Status    Status
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransitionTo moves the order to status to, stamping actor and time.
// Cancelling a cancelled order yields ErrOrderAlreadyCancelled; any other
// forbidden move yields ErrInvalidTransition.
func (o *Order) TransitionTo(to Status, actor string) error {
	if o.Status == StatusCancelled && to == StatusCancelled {
		return domain.ErrOrderAlreadyCancelled
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.UpdatedBy = actor
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ProductIDs returns the product id of every line, in line order, with repeats.
func (o *Order) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// SumSubtotals recomputes Σ subtotal over the items.
func (o *Order) SumSubtotals() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}
