package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

// OrderService serves order reads. Writes go through ReservationService and
// CancellationService.
type OrderService struct {
	repo repositories.OrderReader
}

// NewOrderService returns an OrderService backed by repo.
func NewOrderService(repo repositories.OrderReader) *OrderService {
	return &OrderService{repo: repo}
}

// GetByID returns the order with items and resolved products.
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List returns a page of orders, newest first, plus the total count.
func (s *OrderService) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Order, int, error) {
	orders, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}
