// Package consumers holds the sales event handlers run by the worker.
// Handlers must be idempotent; the event bus redelivers on failure.
package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/events"
	"github.com/ghuser/salesledger/pkg/logger"
	salesevents "github.com/ghuser/salesledger/services/sales/domain/events"
)

// Topics lists every topic the sales context publishes.
var Topics = []string{salesevents.TopicOrderCompleted, salesevents.TopicOrderCancelled}

// ProductInvalidator drops cached product snapshots.
type ProductInvalidator interface {
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// Publisher forwards a keyed message to an external broker.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers map[string]string) error
}

// Subscriber is the part of the event bus the consumers need.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, consumer string, handler events.Handler) (<-chan error, error)
}

// InvalidateProducts returns a handler that evicts the products whose stock
// an order event changed.
func InvalidateProducts(cache ProductInvalidator, log logger.Logger) events.Handler {
	return func(ctx context.Context, msg *message.Message) error {
		ids, err := productIDs(msg)
		if err != nil {
			// A payload that does not decode will never decode.
			log.ErrorContext(ctx, "dropping undecodable order event",
				"event_id", msg.Metadata.Get("event_id"), "error", err)
			return nil
		}
		if len(ids) == 0 {
			return nil
		}
		if err := cache.Delete(ctx, ids...); err != nil {
			return fmt.Errorf("invalidate products: %w", err)
		}
		log.DebugContext(ctx, "product cache invalidated", "products", len(ids))
		return nil
	}
}

// productIDs decodes either order event shape. Completed events list their
// lines, cancelled events list restored stock.
func productIDs(msg *message.Message) ([]uuid.UUID, error) {
	var env struct {
		Lines    []salesevents.StockLine `json:"lines"`
		Restored []salesevents.StockLine `json:"restored"`
	}
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(env.Lines)+len(env.Restored))
	for _, l := range env.Lines {
		ids = append(ids, l.ProductID)
	}
	for _, l := range env.Restored {
		ids = append(ids, l.ProductID)
	}
	return ids, nil
}

// RelayToBroker returns a handler that forwards topic's events to pub,
// keyed by order id so one order's events stay on one partition.
func RelayToBroker(topic string, pub Publisher, log logger.Logger) events.Handler {
	return func(ctx context.Context, msg *message.Message) error {
		var env struct {
			OrderID uuid.UUID `json:"order_id"`
		}
		if err := json.Unmarshal(msg.Payload, &env); err != nil || env.OrderID == uuid.Nil {
			log.ErrorContext(ctx, "dropping order event without order id",
				"event_id", msg.Metadata.Get("event_id"), "error", err)
			return nil
		}

		headers := map[string]string{
			"event_type":    topic,
			"event_id":      msg.Metadata.Get("event_id"),
			"event_version": msg.Metadata.Get("event_version"),
		}
		if err := pub.Publish(ctx, []byte(env.OrderID.String()), msg.Payload, headers); err != nil {
			return fmt.Errorf("relay %s: %w", topic, err)
		}
		log.InfoContext(ctx, "order event relayed", "order_id", env.OrderID, "event_type", topic)
		return nil
	}
}

// Register subscribes the cache invalidator to every order topic and, when
// pub is non-nil, the broker relay as a separate consumer group.
// Subscriber errors are logged until ctx ends.
func Register(ctx context.Context, bus Subscriber, cache ProductInvalidator, pub Publisher, log logger.Logger) error {
	for _, topic := range Topics {
		if cache != nil {
			if err := subscribe(ctx, bus, topic, "cache", InvalidateProducts(cache, log), log); err != nil {
				return err
			}
		}
		if pub != nil {
			if err := subscribe(ctx, bus, topic, "relay", RelayToBroker(topic, pub, log), log); err != nil {
				return err
			}
		}
	}
	log.Info("event subscribers registered", "topics", Topics, "cache", cache != nil, "relay", pub != nil)
	return nil
}

func subscribe(ctx context.Context, bus Subscriber, topic, consumer string, h events.Handler, log logger.Logger) error {
	errCh, err := bus.Subscribe(ctx, topic, consumer, h)
	if err != nil {
		return fmt.Errorf("subscribe %s/%s: %w", topic, consumer, err)
	}
	go func() {
		for err := range errCh {
			log.ErrorContext(ctx, "subscriber error", "topic", topic, "consumer", consumer, "error", err)
		}
	}()
	return nil
}
