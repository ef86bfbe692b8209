// Package services contains stateless domain services for the sales bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond the domain layer.
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
)

// OrderBuilder accumulates validated order lines and produces a PENDING
// Order whose Total is exactly the sum of its line subtotals.
type OrderBuilder struct {
	lines []models.OrderItem
}

// NewOrderBuilder returns an empty builder.
func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{}
}

// AddItem appends one line priced at unitPrice. unitPrice is the snapshot
// taken from the locked product row.
func (b *OrderBuilder) AddItem(productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, productID)
	}
	if quantity > models.MaxStock {
		return fmt.Errorf("%w: quantity %d for product %s exceeds %d", domain.ErrValidation, quantity, productID, models.MaxStock)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price for product %s", domain.ErrValidation, productID)
	}
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if subtotal.GreaterThan(models.MaxAmount) {
		return fmt.Errorf("%w: subtotal for product %s exceeds %s", domain.ErrValidation, productID, models.MaxAmount)
	}
	b.lines = append(b.lines, models.OrderItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  subtotal,
	})
	return nil
}

// Len returns the number of lines added so far.
func (b *OrderBuilder) Len() int {
	return len(b.lines)
}

// Build returns the PENDING order. The builder can be discarded afterwards.
func (b *OrderBuilder) Build(actor string) (*models.Order, error) {
	if len(b.lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:        uuid.New(),
		Items:     make([]models.OrderItem, len(b.lines)),
		Total:     decimal.Zero,
		Status:    models.StatusPending,
		CreatedBy: actor,
		UpdatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, line := range b.lines {
		line.ID = uuid.New()
		line.OrderID = order.ID
		line.CreatedAt = now
		order.Items[i] = line
		order.Total = order.Total.Add(line.Subtotal)
	}
	if order.Total.GreaterThan(models.MaxAmount) {
		return nil, fmt.Errorf("%w: order total exceeds %s", domain.ErrValidation, models.MaxAmount)
	}
	return order, nil
}
