package postgres

import (
	"fmt"

	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/services/sales/domain"
)

// storeErr classifies a driver error: lock waits that gave up become
// ErrLockTimeout, everything else ErrStoreFailure. The driver error stays
// in the chain for logging.
func storeErr(op string, err error) error {
	if database.IsLockTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrLockTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreFailure, err)
}
