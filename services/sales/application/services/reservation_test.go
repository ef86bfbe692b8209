package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/events"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

func newReservation(s *memStore, c *memCache) *ReservationService {
	var inv productInvalidator
	if c != nil {
		inv = c
	}
	return NewReservationService(s, s, inv, testLogger())
}

func newCancellation(s *memStore, c *memCache) *CancellationService {
	var inv productInvalidator
	if c != nil {
		inv = c
	}
	return NewCancellationService(s, s, inv, testLogger())
}

func TestReserveAndCancel_RoundTrip(t *testing.T) {
	store := newMemStore()
	cache := &memCache{}
	p := store.addProduct("Widget", "100.00", 10)
	ctx := context.Background()

	order, err := newReservation(store, cache).Execute(ctx, []ReserveItem{{ProductID: p.ID, Quantity: 2}}, "alice")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(200)), "total %s", order.Total)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "alice", order.CreatedBy)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, 8, store.stock(p.ID))
	assert.Equal(t, []uuid.UUID{p.ID}, cache.invalidated())

	cancelled, err := newCancellation(store, cache).Cancel(ctx, order.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "bob", cancelled.UpdatedBy)
	assert.Equal(t, 10, store.stock(p.ID))

	assert.Equal(t, []string{events.TopicOrderCompleted, events.TopicOrderCancelled}, store.publishedTopics())
}

func TestCancel_Twice(t *testing.T) {
	store := newMemStore()
	p := store.addProduct("Widget", "100.00", 10)
	ctx := context.Background()

	order, err := newReservation(store, nil).Execute(ctx, []ReserveItem{{ProductID: p.ID, Quantity: 3}}, "")
	require.NoError(t, err)
	assert.Equal(t, systemActor, order.CreatedBy)

	cancel := newCancellation(store, nil)
	_, err = cancel.Cancel(ctx, order.ID, "")
	require.NoError(t, err)

	_, err = cancel.Cancel(ctx, order.ID, "")
	assert.ErrorIs(t, err, domain.ErrOrderAlreadyCancelled)
	assert.Equal(t, 10, store.stock(p.ID), "second cancel must not restore stock again")
	assert.Len(t, store.publishedTopics(), 2)
}

func TestCancel_PendingOrderLeavesStock(t *testing.T) {
	store := newMemStore()
	cache := &memCache{}
	p := store.addProduct("Widget", "100.00", 10)
	order := store.addPendingOrder(p, 4)

	cancelled, err := newCancellation(store, cache).Cancel(context.Background(), order.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, store.stock(p.ID))
	assert.Zero(t, store.increments())
	assert.Empty(t, cache.invalidated())

	require.Equal(t, []string{events.TopicOrderCancelled}, store.publishedTopics())
	evt, ok := store.publishedPayloads()[0].(events.OrderCancelledEvent)
	require.True(t, ok)
	assert.Equal(t, order.ID, evt.OrderID)
	assert.Equal(t, string(models.StatusPending), evt.PreviousStatus)
	assert.Empty(t, evt.Restored)
}

func TestCancel_UnknownOrder(t *testing.T) {
	store := newMemStore()
	_, err := newCancellation(store, nil).Cancel(context.Background(), uuid.New(), "alice")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCancel_RestoresEveryLine(t *testing.T) {
	store := newMemStore()
	a := store.addProduct("A", "1.50", 4)
	b := store.addProduct("B", "2.25", 9)
	ctx := context.Background()

	order, err := newReservation(store, nil).Execute(ctx, []ReserveItem{
		{ProductID: b.ID, Quantity: 5},
		{ProductID: a.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 2},
	}, "alice")
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("15.75")), "total %s", order.Total)
	assert.Equal(t, 1, store.stock(a.ID))
	assert.Equal(t, 4, store.stock(b.ID))

	_, err = newCancellation(store, nil).Cancel(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, store.stock(a.ID))
	assert.Equal(t, 9, store.stock(b.ID))
}

func TestExecute_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		items      func(a, b *models.Product) []ReserveItem
		wantErr    error
		wantBegins int
	}{
		{
			name:    "empty order",
			items:   func(a, b *models.Product) []ReserveItem { return nil },
			wantErr: domain.ErrEmptyOrder,
		},
		{
			name: "zero quantity",
			items: func(a, b *models.Product) []ReserveItem {
				return []ReserveItem{{ProductID: a.ID, Quantity: 1}, {ProductID: b.ID, Quantity: 0}}
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			items: func(a, b *models.Product) []ReserveItem {
				return []ReserveItem{{ProductID: a.ID, Quantity: -1}}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "unknown product",
			items: func(a, b *models.Product) []ReserveItem {
				return []ReserveItem{{ProductID: a.ID, Quantity: 1}, {ProductID: uuid.New(), Quantity: 1}}
			},
			wantErr:    domain.ErrProductNotFound,
			wantBegins: 1,
		},
		{
			name: "second line short",
			items: func(a, b *models.Product) []ReserveItem {
				return []ReserveItem{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 2}}
			},
			wantErr:    domain.ErrInsufficientStock,
			wantBegins: 1,
		},
		{
			name: "duplicate lines exceed stock together",
			items: func(a, b *models.Product) []ReserveItem {
				return []ReserveItem{{ProductID: a.ID, Quantity: 3}, {ProductID: a.ID, Quantity: 3}}
			},
			wantErr:    domain.ErrInsufficientStock,
			wantBegins: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			a := store.addProduct("A", "10.00", 5)
			b := store.addProduct("B", "20.00", 1)

			_, err := newReservation(store, nil).Execute(context.Background(), tt.items(a, b), "alice")
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, tt.wantBegins, store.begins)
			assert.Equal(t, 5, store.stock(a.ID))
			assert.Equal(t, 1, store.stock(b.ID))
			assert.Zero(t, store.orderCount())
			assert.Empty(t, store.publishedTopics())
		})
	}
}

func TestExecute_InsufficientStockDetails(t *testing.T) {
	store := newMemStore()
	a := store.addProduct("Anvil", "10.00", 3)

	_, err := newReservation(store, nil).Execute(context.Background(), []ReserveItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: a.ID, Quantity: 2},
	}, "alice")

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, a.ID, ise.ProductID)
	assert.Equal(t, 3, ise.Available)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, "Insufficient stock for product Anvil. Available: 3, Requested: 4", ise.Error())
}

func TestExecute_StoreFailureRollsBack(t *testing.T) {
	for _, step := range []string{"insert_order", "decrement", "update_status", "outbox", "commit"} {
		t.Run(step, func(t *testing.T) {
			store := newMemStore()
			cache := &memCache{}
			a := store.addProduct("A", "10.00", 5)
			b := store.addProduct("B", "20.00", 5)
			store.failAt = step

			_, err := newReservation(store, cache).Execute(context.Background(), []ReserveItem{
				{ProductID: a.ID, Quantity: 1},
				{ProductID: b.ID, Quantity: 2},
			}, "alice")
			assert.ErrorIs(t, err, domain.ErrStoreFailure)

			assert.Equal(t, 5, store.stock(a.ID))
			assert.Equal(t, 5, store.stock(b.ID))
			assert.Zero(t, store.orderCount())
			assert.Empty(t, store.publishedTopics())
			assert.Empty(t, cache.invalidated())
		})
	}
}

func TestCancel_StoreFailureKeepsOrder(t *testing.T) {
	store := newMemStore()
	a := store.addProduct("A", "10.00", 5)
	ctx := context.Background()

	order, err := newReservation(store, nil).Execute(ctx, []ReserveItem{{ProductID: a.ID, Quantity: 2}}, "alice")
	require.NoError(t, err)

	store.failAt = "update_status"
	_, err = newCancellation(store, nil).Cancel(ctx, order.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrStoreFailure)

	got, err := store.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 3, store.stock(a.ID))
}

func TestExecute_PriceIsFrozen(t *testing.T) {
	store := newMemStore()
	a := store.addProduct("A", "100.00", 10)
	ctx := context.Background()

	order, err := newReservation(store, nil).Execute(ctx, []ReserveItem{{ProductID: a.ID, Quantity: 1}}, "alice")
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("150.00")
	products := NewProductService(store, memProducts{store}, nil, testLogger())
	_, err = products.Update(ctx, a.ID, UpdateProductInput{Price: &newPrice}, "alice")
	require.NoError(t, err)

	got, err := store.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Total.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Items[0].Product.Price.Equal(newPrice))
}

func TestExecute_ConcurrentOrdersDoNotOversell(t *testing.T) {
	store := newMemStore()
	a := store.addProduct("A", "10.00", 5)
	svc := newReservation(store, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Execute(context.Background(), []ReserveItem{{ProductID: a.ID, Quantity: 2}}, "alice")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, short)
	assert.Equal(t, 1, store.stock(a.ID))
}

func TestExecute_OverlappingProductSetsInOppositeOrder(t *testing.T) {
	store := newMemStore()
	a := store.addProduct("A", "1.00", 100)
	b := store.addProduct("B", "1.00", 100)
	svc := newReservation(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := []ReserveItem{{ProductID: a.ID, Quantity: 1}, {ProductID: b.ID, Quantity: 1}}
			if i%2 == 1 {
				items[0], items[1] = items[1], items[0]
			}
			_, err := svc.Execute(context.Background(), items, "alice")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 80, store.stock(a.ID))
	assert.Equal(t, 80, store.stock(b.ID))
	assert.Equal(t, 20, store.orderCount())
}

type failingTransactor struct{ err error }

func (f failingTransactor) Begin(context.Context) (repositories.Tx, error) { return nil, f.err }

func TestExecute_BeginErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name      string
		beginErr  error
		wantErr   error
		retryable bool
	}{
		{"lock timeout", domain.ErrLockTimeout, domain.ErrLockTimeout, true},
		{"raw driver error", errors.New("dial tcp: connection refused"), domain.ErrStoreFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			a := store.addProduct("A", "1.00", 1)
			svc := NewReservationService(failingTransactor{tt.beginErr}, store, nil, testLogger())

			_, err := svc.Execute(context.Background(), []ReserveItem{{ProductID: a.ID, Quantity: 1}}, "alice")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
		})
	}
}
