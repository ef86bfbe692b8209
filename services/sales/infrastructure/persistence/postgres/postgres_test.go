package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

var productColumns = []string{
	"id", "name", "category", "description", "price", "stock_quantity",
	"created_by", "updated_by", "created_at", "updated_at",
}

var (
	idLow  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idHigh = uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
)

func newMock(t *testing.T) (*database.Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database.New(sqlDB, logger.New(&config.Config{LogLevel: "error"})), mock
}

func beginTx(t *testing.T, d *database.Database, mock sqlmock.Sqlmock) repositories.Tx {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '2000ms'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := NewTransactor(d, nil, 2*time.Second).Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func productRow(id uuid.UUID, name string, price string, stock int) *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(productColumns).
		AddRow(id.String(), name, "tools", "", price, int64(stock), "system", "system", now, now)
}

func TestTransactor_BeginSetsLockTimeout(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	mock.ExpectCommit()
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_BeginFailure(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := NewTransactor(d, nil, time.Second).Begin(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestTx_RollbackAfterCommitIsNoop(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	mock.ExpectCommit()
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
}

func TestLedger_LockForUpdate_AscendingOrder(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	mock.ExpectQuery("FOR UPDATE").WithArgs(idLow).
		WillReturnRows(productRow(idLow, "Hammer", "10.00", 3))
	mock.ExpectQuery("FOR UPDATE").WithArgs(idHigh).
		WillReturnRows(productRow(idHigh, "Wrench", "25.50", 7))

	locked, err := tx.Ledger().LockForUpdate(context.Background(), []uuid.UUID{idHigh, idLow, idHigh})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Equal(t, 3, locked[idLow].StockQuantity)
	assert.True(t, locked[idHigh].Price.Equal(decimal.RequireFromString("25.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_LockForUpdate_ReusesLockedRows(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	mock.ExpectQuery("FOR UPDATE").WithArgs(idLow).
		WillReturnRows(productRow(idLow, "Hammer", "10.00", 3))

	_, err := tx.Ledger().LockForUpdate(context.Background(), []uuid.UUID{idLow})
	require.NoError(t, err)
	again, err := tx.Ledger().LockForUpdate(context.Background(), []uuid.UUID{idLow})
	require.NoError(t, err)
	assert.Equal(t, 3, again[idLow].StockQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_LockForUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(q *sqlmock.ExpectedQuery)
		wantErr error
	}{
		{
			name:    "missing row",
			setup:   func(q *sqlmock.ExpectedQuery) { q.WillReturnRows(sqlmock.NewRows(productColumns)) },
			wantErr: domain.ErrProductNotFound,
		},
		{
			name:    "lock not available",
			setup:   func(q *sqlmock.ExpectedQuery) { q.WillReturnError(&pgconn.PgError{Code: database.CodeLockNotAvailable}) },
			wantErr: domain.ErrLockTimeout,
		},
		{
			name:    "deadlock",
			setup:   func(q *sqlmock.ExpectedQuery) { q.WillReturnError(&pgconn.PgError{Code: database.CodeDeadlockDetected}) },
			wantErr: domain.ErrLockTimeout,
		},
		{
			name:    "connection reset",
			setup:   func(q *sqlmock.ExpectedQuery) { q.WillReturnError(errors.New("connection reset by peer")) },
			wantErr: domain.ErrStoreFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newMock(t)
			tx := beginTx(t, d, mock)

			tt.setup(mock.ExpectQuery("FOR UPDATE").WithArgs(idLow))

			_, err := tx.Ledger().LockForUpdate(context.Background(), []uuid.UUID{idLow})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLedger_Decrement(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)
	ctx := context.Background()

	mock.ExpectQuery("FOR UPDATE").WithArgs(idLow).
		WillReturnRows(productRow(idLow, "Hammer", "10.00", 5))
	_, err := tx.Ledger().LockForUpdate(ctx, []uuid.UUID{idLow})
	require.NoError(t, err)

	mock.ExpectExec("UPDATE sales.products").WithArgs(idLow, int32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, tx.Ledger().Decrement(ctx, idLow, 2))

	// 3 left in the locked snapshot; asking for 4 never reaches the table.
	err = tx.Ledger().Decrement(ctx, idLow, 4)
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 3, ise.Available)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, "Hammer", ise.ProductName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Decrement_GuardRejects(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)
	ctx := context.Background()

	mock.ExpectQuery("FOR UPDATE").WithArgs(idLow).
		WillReturnRows(productRow(idLow, "Hammer", "10.00", 5))
	_, err := tx.Ledger().LockForUpdate(ctx, []uuid.UUID{idLow})
	require.NoError(t, err)

	mock.ExpectExec("UPDATE sales.products").WillReturnResult(sqlmock.NewResult(0, 0))
	err = tx.Ledger().Decrement(ctx, idLow, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestLedger_RequiresLock(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	assert.ErrorIs(t, tx.Ledger().Decrement(context.Background(), idLow, 1), domain.ErrRowNotLocked)
	assert.ErrorIs(t, tx.Ledger().Increment(context.Background(), idLow, 1), domain.ErrRowNotLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Increment(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)
	ctx := context.Background()

	mock.ExpectQuery("FOR UPDATE").WithArgs(idLow).
		WillReturnRows(productRow(idLow, "Hammer", "10.00", 8))
	_, err := tx.Ledger().LockForUpdate(ctx, []uuid.UUID{idLow})
	require.NoError(t, err)

	mock.ExpectExec("UPDATE sales.products").WithArgs(idLow, int32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, tx.Ledger().Increment(ctx, idLow, 2))

	assert.ErrorIs(t, tx.Ledger().Increment(ctx, idLow, 0), domain.ErrInvalidQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_RejectsOutOfRangeQuantities(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)
	ctx := context.Background()

	mock.ExpectQuery("FOR UPDATE").WithArgs(idLow).
		WillReturnRows(productRow(idLow, "Hammer", "10.00", models.MaxStock-1))
	_, err := tx.Ledger().LockForUpdate(ctx, []uuid.UUID{idLow})
	require.NoError(t, err)

	// None of these may reach the table; a narrowed delta would corrupt stock.
	assert.ErrorIs(t, tx.Ledger().Decrement(ctx, idLow, 1<<32+1), domain.ErrValidation)
	assert.ErrorIs(t, tx.Ledger().Increment(ctx, idLow, 1<<32+10), domain.ErrValidation)
	assert.ErrorIs(t, tx.Ledger().Increment(ctx, idLow, 2), domain.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_InsertRejectsStockAboveColumnRange(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	p := &models.Product{
		ID:            idLow,
		Name:          models.ProductName("Hammer"),
		Category:      "tools",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 1<<32 + 10,
	}
	err := tx.Products().Insert(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderStore_InsertWritesLineNumbers(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	now := time.Now().UTC()
	order := &models.Order{
		ID:        uuid.New(),
		Total:     decimal.RequireFromString("45.50"),
		Status:    models.StatusPending,
		CreatedBy: "alice",
		UpdatedBy: "alice",
		CreatedAt: now,
		UpdatedAt: now,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: idHigh, Quantity: 1, UnitPrice: decimal.RequireFromString("25.50"), Subtotal: decimal.RequireFromString("25.50"), CreatedAt: now},
			{ID: uuid.New(), ProductID: idLow, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00"), CreatedAt: now},
		},
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	mock.ExpectExec("INSERT INTO sales.orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sales.order_items").
		WithArgs(order.Items[0].ID, order.ID, idHigh, int32(1), int32(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sales.order_items").
		WithArgs(order.Items[1].ID, order.ID, idLow, int32(2), int32(2), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, tx.Orders().Insert(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderStore_GetForUpdate_NotFound(t *testing.T) {
	d, mock := newMock(t)
	tx := beginTx(t, d, mock)

	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "total", "status", "created_by", "updated_by", "created_at", "updated_at"}))

	_, err := tx.Orders().GetForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestProductStore_Delete(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *sqlmock.ExpectedExec)
		wantErr error
	}{
		{
			name:  "deleted",
			setup: func(e *sqlmock.ExpectedExec) { e.WillReturnResult(sqlmock.NewResult(0, 1)) },
		},
		{
			name:    "missing",
			setup:   func(e *sqlmock.ExpectedExec) { e.WillReturnResult(sqlmock.NewResult(0, 0)) },
			wantErr: domain.ErrProductNotFound,
		},
		{
			name:    "referenced by orders",
			setup:   func(e *sqlmock.ExpectedExec) { e.WillReturnError(&pgconn.PgError{Code: database.CodeForeignKeyViolation}) },
			wantErr: domain.ErrProductInUse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newMock(t)
			tx := beginTx(t, d, mock)

			tt.setup(mock.ExpectExec("DELETE FROM sales.products").WithArgs(idLow))

			err := tx.Products().Delete(context.Background(), idLow)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProductRepository_List(t *testing.T) {
	d, mock := newMock(t)

	rows := productRow(idLow, "Hammer", "10.00", 3)
	rows.AddRow(idHigh.String(), "Wrench", "tools", "", "25.50", int64(7), "system", "system", time.Now(), time.Now())
	mock.ExpectQuery("FROM sales.products").WithArgs(int32(10), int32(0)).WillReturnRows(rows)
	mock.ExpectQuery("SELECT count").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	products, total, err := NewProductRepository(d).List(context.Background(), repositories.QueryOpts{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 12, total)
	assert.Equal(t, models.ProductName("Wrench"), products[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("FROM sales.products").WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := NewProductRepository(d).GetByID(context.Background(), idLow)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
