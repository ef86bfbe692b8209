package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/services/sales/domain/models"
)

// Topics published through the transactional outbox.
const (
	TopicOrderCompleted = "order.completed"
	TopicOrderCancelled = "order.cancelled"
)

const eventVersion = 1

// StockLine is one product quantity moved by an order event.
type StockLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price,omitempty"`
}

// OrderCompletedEvent is written in the reservation transaction once stock
// has been decremented and the order is COMPLETED.
type OrderCompletedEvent struct {
	EventID    uuid.UUID   `json:"event_id"`
	Version    int         `json:"version"`
	OrderID    uuid.UUID   `json:"order_id"`
	Total      string      `json:"total"`
	Lines      []StockLine `json:"lines"`
	Actor      string      `json:"actor"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// OrderCancelledEvent is written in the cancellation transaction.
// Restored is empty when the order was cancelled from PENDING.
type OrderCancelledEvent struct {
	EventID        uuid.UUID   `json:"event_id"`
	Version        int         `json:"version"`
	OrderID        uuid.UUID   `json:"order_id"`
	PreviousStatus string      `json:"previous_status"`
	Restored       []StockLine `json:"restored"`
	Actor          string      `json:"actor"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// NewOrderCompleted builds the event for a completed order.
func NewOrderCompleted(o *models.Order) OrderCompletedEvent {
	lines := make([]StockLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = StockLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice.StringFixed(2)}
	}
	return OrderCompletedEvent{
		EventID:    uuid.New(),
		Version:    eventVersion,
		OrderID:    o.ID,
		Total:      o.Total.StringFixed(2),
		Lines:      lines,
		Actor:      o.UpdatedBy,
		OccurredAt: o.UpdatedAt,
	}
}

// NewOrderCancelled builds the event for a cancelled order. restored reports
// whether stock was returned to the ledger.
func NewOrderCancelled(o *models.Order, previous models.Status, restored bool) OrderCancelledEvent {
	var lines []StockLine
	if restored {
		lines = make([]StockLine, len(o.Items))
		for i, it := range o.Items {
			lines[i] = StockLine{ProductID: it.ProductID, Quantity: it.Quantity}
		}
	}
	return OrderCancelledEvent{
		EventID:        uuid.New(),
		Version:        eventVersion,
		OrderID:        o.ID,
		PreviousStatus: string(previous),
		Restored:       lines,
		Actor:          o.UpdatedBy,
		OccurredAt:     o.UpdatedAt,
	}
}

// ProductIDs returns the products whose stock the event changed.
func (e OrderCompletedEvent) ProductIDs() []uuid.UUID { return lineIDs(e.Lines) }

// ProductIDs returns the products whose stock the event changed.
func (e OrderCancelledEvent) ProductIDs() []uuid.UUID { return lineIDs(e.Restored) }

func lineIDs(lines []StockLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
