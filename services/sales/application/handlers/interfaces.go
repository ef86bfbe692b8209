package handlers

import (
	"context"

	"github.com/google/uuid"

	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

// OrderReserver is satisfied by *appsvcs.ReservationService.
type OrderReserver interface {
	Execute(ctx context.Context, items []appsvcs.ReserveItem, actor string) (*models.Order, error)
}

// OrderCanceller is satisfied by *appsvcs.CancellationService.
type OrderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID, actor string) (*models.Order, error)
}

// OrderFinder is satisfied by *appsvcs.OrderService.
type OrderFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Order, int, error)
}

// ProductManager is satisfied by *appsvcs.ProductService.
type ProductManager interface {
	Create(ctx context.Context, in appsvcs.CreateProductInput, actor string) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Product, int, error)
	Update(ctx context.Context, id uuid.UUID, in appsvcs.UpdateProductInput, actor string) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
