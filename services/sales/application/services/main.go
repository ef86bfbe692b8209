package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/app"
	"github.com/ghuser/salesledger/pkg/cache"
	"github.com/ghuser/salesledger/services/sales/infrastructure/persistence/postgres"
)

// CancelScheduler hands a cancellation that hit a lock timeout to a durable
// retry mechanism and returns its tracking id.
type CancelScheduler interface {
	ScheduleCancel(ctx context.Context, orderID uuid.UUID, actor string) (string, error)
}

// Services is the application-layer service container for the sales
// bounded context. It wires domain services with their infrastructure.
type Services struct {
	Reservation  *ReservationService
	Cancellation *CancellationService
	Orders       *OrderService
	Products     *ProductService

	// CancelRetries is nil unless a workflow engine is configured.
	CancelRetries CancelScheduler
}

// New wires all sales application services with infrastructure from the
// Application container.
func New(a *app.Application) *Services {
	tx := postgres.NewTransactor(a.Db, a.EventBus, a.Config.LockTimeout)
	orders := postgres.NewOrderRepository(a.Db)
	products := postgres.NewProductRepository(a.Db)

	var pc *cache.ProductCache
	if a.Redis != nil {
		pc = cache.NewProductCache(a.Redis, a.Config.ProductCacheTTL)
	}

	return &Services{
		Reservation:  NewReservationService(tx, orders, optional(pc), a.Logger),
		Cancellation: NewCancellationService(tx, orders, optional(pc), a.Logger),
		Orders:       NewOrderService(orders),
		Products:     NewProductService(tx, products, optionalCache(pc), a.Logger),
	}
}

// optional keeps a nil *ProductCache from becoming a non-nil interface.
func optional(pc *cache.ProductCache) productInvalidator {
	if pc == nil {
		return nil
	}
	return pc
}

func optionalCache(pc *cache.ProductCache) productCache {
	if pc == nil {
		return nil
	}
	return pc
}
