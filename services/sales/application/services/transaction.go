package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

// runInTx runs fn inside one transaction. fn's error or panic rolls back every
// mutation it made; otherwise the transaction is committed. Begin and commit
// failures surface as ErrStoreFailure unless already classified.
func runInTx(ctx context.Context, tr repositories.Transactor, fn func(tx repositories.Tx) error) error {
	tx, err := tr.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	committed = true
	return nil
}

func classify(err error) error {
	if errors.Is(err, domain.ErrStoreFailure) || errors.Is(err, domain.ErrLockTimeout) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
}

const systemActor = "system"

func actorOrSystem(actor string) string {
	if actor == "" {
		return systemActor
	}
	return actor
}
