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
)

// CancellationService cancels orders and returns reserved stock.
type CancellationService struct {
	tx      repositories.Transactor
	orders  repositories.OrderReader
	cache   productInvalidator
	log     logger.Logger
	metrics *salesMetrics
}

// NewCancellationService returns a CancellationService. cache may be nil.
func NewCancellationService(tx repositories.Transactor, orders repositories.OrderReader, cache productInvalidator, log logger.Logger) *CancellationService {
	return &CancellationService{tx: tx, orders: orders, cache: cache, log: log, metrics: newSalesMetrics()}
}

// Cancel moves the order to CANCELLED. A COMPLETED order has each line's
// quantity added back to stock under the same ascending-id locks the
// reservation used. A second cancel fails with ErrOrderAlreadyCancelled
// and changes nothing.
func (s *CancellationService) Cancel(ctx context.Context, orderID uuid.UUID, actor string) (*models.Order, error) {
	ctx, span := s.metrics.tracer.Start(ctx, "sales.cancellation.cancel",
		trace.WithAttributes(attribute.String("sales.order_id", orderID.String())))
	defer span.End()

	actor = actorOrSystem(actor)
	order, restored, err := s.cancel(ctx, orderID, actor)
	if err != nil {
		s.log.WarnContext(ctx, "cancellation failed", "order_id", orderID, "reason", failureReason(err), "error", err)
		return nil, fail(span, err)
	}

	units := 0
	for _, it := range order.Items {
		units += it.Quantity
	}
	s.metrics.cancelled.Add(ctx, 1)
	if restored {
		s.metrics.restored.Add(ctx, int64(units))
		invalidateProducts(ctx, s.cache, s.log, order.ProductIDs())
	}
	s.log.InfoContext(ctx, "order cancelled", "order_id", orderID, "restored", restored, "units", units, "actor", actor)

	hydrated, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		s.log.WarnContext(ctx, "reload cancelled order", "order_id", orderID, "error", err)
		return order, nil
	}
	return hydrated, nil
}

func (s *CancellationService) cancel(ctx context.Context, orderID uuid.UUID, actor string) (*models.Order, bool, error) {
	var (
		order    *models.Order
		restored bool
	)
	err := runInTx(ctx, s.tx, func(tx repositories.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == models.StatusCancelled {
			return domain.ErrOrderAlreadyCancelled
		}

		previous := o.Status
		restore := previous == models.StatusCompleted
		if restore {
			if _, err := tx.Ledger().LockForUpdate(ctx, o.ProductIDs()); err != nil {
				return fmt.Errorf("lock products: %w", err)
			}
			for _, it := range o.Items {
				if err := tx.Ledger().Increment(ctx, it.ProductID, it.Quantity); err != nil {
					return fmt.Errorf("restore stock: %w", err)
				}
			}
		}

		if err := o.TransitionTo(models.StatusCancelled, actor); err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, o); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		evt := events.NewOrderCancelled(o, previous, restore)
		if err := tx.Outbox().Append(ctx, events.TopicOrderCancelled, evt.EventID, evt); err != nil {
			return fmt.Errorf("append %s: %w", events.TopicOrderCancelled, err)
		}

		order, restored = o, restore
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return order, restored, nil
}
