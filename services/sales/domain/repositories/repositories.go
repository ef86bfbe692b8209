package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/services/sales/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// Transactor opens transaction boundaries. The domain layer owns this
// interface; infrastructure implements it.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one open transaction. Every store obtained from a Tx operates
// inside it; nothing becomes visible to other transactions until Commit.
// Rollback after Commit is a no-op.
type Tx interface {
	Ledger() InventoryLedger
	Orders() OrderStore
	Products() ProductStore
	Outbox() Outbox
	Commit() error
	Rollback() error
}

// InventoryLedger guards product stock counters with exclusive row locks.
type InventoryLedger interface {
	// LockForUpdate locks every product row in ids, one at a time in
	// ascending id order, and returns the locked rows keyed by id.
	// Fails with ErrProductNotFound if any id does not exist.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)

	// Decrement subtracts qty from a locked row. Fails with
	// *InsufficientStockError if the result would be negative and with
	// ErrRowNotLocked if the row was not locked by this transaction.
	Decrement(ctx context.Context, productID uuid.UUID, qty int) error

	// Increment adds qty to a locked row.
	Increment(ctx context.Context, productID uuid.UUID, qty int) error
}

// OrderStore writes orders inside a transaction.
type OrderStore interface {
	// Insert persists the order header and all of its items.
	Insert(ctx context.Context, order *models.Order) error

	// UpdateStatus persists Status, UpdatedBy and UpdatedAt.
	UpdateStatus(ctx context.Context, order *models.Order) error

	// GetForUpdate loads the order with its items and locks the order row.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ProductStore writes product rows inside a transaction. Stock changes go
// through InventoryLedger instead.
type ProductStore interface {
	Insert(ctx context.Context, p *models.Product) error
	// UpdateDetails persists every field except StockQuantity.
	UpdateDetails(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Outbox records domain events in the same transaction as the state change.
type Outbox interface {
	Append(ctx context.Context, topic string, eventID uuid.UUID, event any) error
}

// OrderReader serves non-transactional order reads.
type OrderReader interface {
	// GetByID returns the order with items and their resolved products.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// List returns a page of orders, newest first, and the total count.
	List(ctx context.Context, opts QueryOpts) ([]*models.Order, int, error)
}

// ProductReader serves non-transactional product reads.
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, opts QueryOpts) ([]*models.Product, int, error)
}
