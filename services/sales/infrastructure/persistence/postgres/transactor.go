package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/pkg/events"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
	"github.com/ghuser/salesledger/services/sales/infrastructure/persistence/postgres/db"
)

// Transactor implements repositories.Transactor on a *database.Database.
// Every transaction it opens bounds row-lock waits with lockTimeout.
type Transactor struct {
	db          *database.Database
	bus         *events.EventBus
	lockTimeout time.Duration
}

// NewTransactor returns a Transactor. bus may be nil, in which case outbox
// writes are dropped (seed tooling and tests).
func NewTransactor(d *database.Database, bus *events.EventBus, lockTimeout time.Duration) *Transactor {
	return &Transactor{db: d, bus: bus, lockTimeout: lockTimeout}
}

// Begin opens a transaction and applies SET LOCAL lock_timeout.
func (t *Transactor) Begin(ctx context.Context) (repositories.Tx, error) {
	tx, err := t.db.BeginTx(ctx)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	if err := database.SetLockTimeout(ctx, tx, t.lockTimeout); err != nil {
		_ = tx.Rollback()
		return nil, storeErr("begin", err)
	}

	q := db.New(tx)
	return &pgTx{
		tx:       tx,
		ledger:   newLedger(q),
		orders:   &orderStore{q: q},
		products: &productStore{q: q},
		outbox:   newOutbox(tx, t.bus),
	}, nil
}

type pgTx struct {
	tx       *sql.Tx
	ledger   *Ledger
	orders   *orderStore
	products *productStore
	outbox   repositories.Outbox
}

func (t *pgTx) Ledger() repositories.InventoryLedger { return t.ledger }
func (t *pgTx) Orders() repositories.OrderStore      { return t.orders }
func (t *pgTx) Products() repositories.ProductStore  { return t.products }
func (t *pgTx) Outbox() repositories.Outbox          { return t.outbox }

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return fmt.Errorf("commit: %w: %w", domain.ErrStoreFailure, err)
		}
		return storeErr("commit", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return storeErr("rollback", err)
	}
	return nil
}
