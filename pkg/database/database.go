// Package database owns the PostgreSQL connection pool and transaction helpers.
//
// The pool is a database/sql handle over the pgx stdlib driver so the same
// *sql.Tx can be shared with Watermill's SQL publisher (transactional outbox).
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/logger"
)

// PostgreSQL SQLSTATE codes the application reacts to.
const (
	CodeLockNotAvailable    = "55P03"
	CodeDeadlockDetected    = "40P01"
	CodeForeignKeyViolation = "23503"
	CodeUniqueViolation     = "23505"
	CodeCheckViolation      = "23514"
)

// Database wraps *sql.DB with transaction helpers.
type Database struct {
	db  *sql.DB
	log logger.Logger
}

// NewPool opens a pgx-backed *sql.DB, applies pool limits from cfg and
// verifies connectivity.
func NewPool(ctx context.Context, cfg *config.Config, log logger.Logger) (*Database, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLife)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{db: db, log: log}, nil
}

// New wraps an existing *sql.DB. Used by tests with sqlmock.
func New(db *sql.DB, log logger.Logger) *Database {
	return &Database{db: db, log: log}
}

// DB returns the underlying *sql.DB for non-transactional reads.
func (d *Database) DB() *sql.DB {
	return d.db
}

// BeginTx starts a transaction with default isolation (READ COMMITTED).
func (d *Database) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// WithTx runs fn inside a transaction. The transaction is rolled back if fn
// returns an error or panics, and committed otherwise.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SetLockTimeout bounds how long statements in tx wait for row locks.
// SET LOCAL scopes the setting to the current transaction only.
// Durations under a millisecond are rejected: they would render as '0ms',
// which disables the timeout.
func SetLockTimeout(ctx context.Context, tx *sql.Tx, d time.Duration) error {
	if d < time.Millisecond {
		return fmt.Errorf("set lock_timeout: %s is below 1ms", d)
	}
	// SET does not accept bind parameters.
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}

// Ping checks the database connection health.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// Close closes the pool.
func (d *Database) Close() {
	if err := d.db.Close(); err != nil && d.log != nil {
		d.log.Error("failed to close database", "error", err)
	}
}

// PgCode returns the SQLSTATE of err if it wraps a *pgconn.PgError.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsLockTimeout reports whether err means the statement gave up waiting for a
// lock, either by lock_timeout or by deadlock detection.
func IsLockTimeout(err error) bool {
	switch PgCode(err) {
	case CodeLockNotAvailable, CodeDeadlockDetected:
		return true
	}
	return false
}
