package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	domainsvcs "github.com/ghuser/salesledger/services/sales/domain/services"
	"github.com/ghuser/salesledger/services/sales/infrastructure/persistence/postgres/db"
)

// Ledger implements repositories.InventoryLedger with SELECT ... FOR UPDATE
// row locks. It remembers the rows locked in its transaction and their
// current stock so guarded writes can be checked before hitting the table.
type Ledger struct {
	q      *db.Queries
	locked map[uuid.UUID]*models.Product
}

func newLedger(q *db.Queries) *Ledger {
	return &Ledger{q: q, locked: make(map[uuid.UUID]*models.Product)}
}

// LockForUpdate locks the rows one statement at a time in ascending id
// order. Rows already locked by this transaction are not re-queried.
func (l *Ledger) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	for _, id := range domainsvcs.LockOrder(ids) {
		if p, ok := l.locked[id]; ok {
			out[id] = p.Clone()
			continue
		}
		row, err := l.q.LockProductForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
			}
			return nil, storeErr("lock product", err)
		}
		p := rowToProduct(row)
		l.locked[id] = p
		out[id] = p.Clone()
	}
	return out, nil
}

// Decrement subtracts qty from a locked row. The UPDATE repeats the
// stock_quantity >= qty guard, so zero affected rows also means short stock.
func (l *Ledger) Decrement(ctx context.Context, productID uuid.UUID, qty int) error {
	p, ok := l.locked[productID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRowNotLocked, productID)
	}
	if err := checkQty(productID, qty); err != nil {
		return err
	}
	if p.StockQuantity < qty {
		return insufficient(p, qty)
	}

	n, err := l.q.DecrementStock(ctx, db.DecrementStockParams{ID: productID, Quantity: int32(qty)})
	if err != nil {
		return storeErr("decrement stock", err)
	}
	if n == 0 {
		return insufficient(p, qty)
	}
	p.StockQuantity -= qty
	return nil
}

// Increment adds qty to a locked row.
func (l *Ledger) Increment(ctx context.Context, productID uuid.UUID, qty int) error {
	p, ok := l.locked[productID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRowNotLocked, productID)
	}
	if err := checkQty(productID, qty); err != nil {
		return err
	}
	if p.StockQuantity > models.MaxStock-qty {
		return fmt.Errorf("%w: stock for product %s would exceed %d", domain.ErrValidation, productID, models.MaxStock)
	}

	n, err := l.q.IncrementStock(ctx, db.IncrementStockParams{ID: productID, Quantity: int32(qty)})
	if err != nil {
		return storeErr("increment stock", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	p.StockQuantity += qty
	return nil
}

// checkQty rejects deltas the INTEGER column cannot carry.
func checkQty(productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, productID)
	}
	if qty > models.MaxStock {
		return fmt.Errorf("%w: quantity %d for product %s exceeds %d", domain.ErrValidation, qty, productID, models.MaxStock)
	}
	return nil
}

func insufficient(p *models.Product, qty int) error {
	return &domain.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name.String(),
		Available:   p.StockQuantity,
		Requested:   qty,
	}
}
