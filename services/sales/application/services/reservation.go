package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/events"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
	domainsvcs "github.com/ghuser/salesledger/services/sales/domain/services"
)

// ReserveItem is one requested line: a product and how many units of it.
type ReserveItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// ReservationService creates orders and takes their stock in one
// transaction. Either the order is COMPLETED and every line's stock is
// decremented, or nothing is written.
type ReservationService struct {
	tx      repositories.Transactor
	orders  repositories.OrderReader
	cache   productInvalidator
	log     logger.Logger
	metrics *salesMetrics
}

// NewReservationService returns a ReservationService. cache may be nil.
func NewReservationService(tx repositories.Transactor, orders repositories.OrderReader, cache productInvalidator, log logger.Logger) *ReservationService {
	return &ReservationService{tx: tx, orders: orders, cache: cache, log: log, metrics: newSalesMetrics()}
}

// Execute reserves stock for items and returns the COMPLETED order with its
// items and resolved products.
//
// Product rows are locked in ascending id order before availability is
// read, and unit prices are copied from the locked rows. Duplicate product
// ids are checked against their cumulative quantity.
func (s *ReservationService) Execute(ctx context.Context, items []ReserveItem, actor string) (*models.Order, error) {
	ctx, span := s.metrics.tracer.Start(ctx, "sales.reservation.execute",
		trace.WithAttributes(attribute.Int("sales.items", len(items))))
	defer span.End()

	actor = actorOrSystem(actor)
	order, err := s.reserve(ctx, items, actor)
	if err != nil {
		s.metrics.reject(ctx, err)
		s.log.WarnContext(ctx, "reservation rejected", "reason", failureReason(err), "error", err)
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.String("sales.order_id", order.ID.String()))
	s.metrics.reserved.Add(ctx, 1)
	s.log.InfoContext(ctx, "order reserved", "order_id", order.ID, "total", order.Total.StringFixed(2), "actor", actor)
	invalidateProducts(ctx, s.cache, s.log, order.ProductIDs())

	hydrated, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		s.log.WarnContext(ctx, "reload reserved order", "order_id", order.ID, "error", err)
		return order, nil
	}
	return hydrated, nil
}

func (s *ReservationService) reserve(ctx context.Context, items []ReserveItem, actor string) (*models.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	var order *models.Order
	err := runInTx(ctx, s.tx, func(tx repositories.Tx) error {
		ids := make([]uuid.UUID, len(items))
		for i, it := range items {
			ids[i] = it.ProductID
		}
		locked, err := tx.Ledger().LockForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		requested := make(map[uuid.UUID]int, len(locked))
		builder := domainsvcs.NewOrderBuilder()
		for _, it := range items {
			p, ok := locked[it.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, it.ProductID)
			}
			requested[it.ProductID] += it.Quantity
			if requested[it.ProductID] > p.StockQuantity {
				return &domain.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name.String(),
					Available:   p.StockQuantity,
					Requested:   requested[it.ProductID],
				}
			}
			if err := builder.AddItem(it.ProductID, it.Quantity, p.Price); err != nil {
				return err
			}
		}

		o, err := builder.Build(actor)
		if err != nil {
			return err
		}
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, line := range o.Items {
			if err := tx.Ledger().Decrement(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if err := o.TransitionTo(models.StatusCompleted, actor); err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, o); err != nil {
			return fmt.Errorf("complete order: %w", err)
		}

		evt := events.NewOrderCompleted(o)
		if err := tx.Outbox().Append(ctx, events.TopicOrderCompleted, evt.EventID, evt); err != nil {
			return fmt.Errorf("append %s: %w", events.TopicOrderCompleted, err)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// validateItems rejects malformed requests before any lock is taken.
func validateItems(items []ReserveItem) error {
	if len(items) == 0 {
		return domain.ErrEmptyOrder
	}
	for i, it := range items {
		if it.ProductID == uuid.Nil {
			return fmt.Errorf("%w: item %d has no product id", domain.ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, it.ProductID)
		}
	}
	return nil
}
