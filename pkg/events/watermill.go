// Package events carries committed domain events over Watermill's SQL
// transport on the application's PostgreSQL database.
//
// Publishing happens only inside a business transaction (PublishTx): the
// message row is written with the same commit as the data it describes,
// which makes the message table the outbox.
//
// Delivery semantics: every Subscribe call names a consumer. Each consumer
// has its own consumer group (<service>-<consumer>), so each consumer sees
// every message once, and instances running the same consumer share the
// load. Handlers should be idempotent; event_id metadata identifies a
// message across redeliveries.
//
// OTel context propagation: trace context is injected into message metadata
// on publish and extracted before the handler runs.
package events

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second
)

// Handler processes one message. Returning an error triggers a retry.
type Handler func(ctx context.Context, msg *message.Message) error

// EventBus publishes and consumes messages stored in PostgreSQL.
// It shares the application's *sql.DB and never closes it.
type EventBus struct {
	db    *sql.DB
	group string
	log   logger.Logger
	wlog  watermill.LoggerAdapter

	mu          sync.Mutex
	subscribers []*watermillsql.Subscriber
	wg          sync.WaitGroup
}

// NewEventBus returns an EventBus on db. Consumer groups are prefixed with
// cfg.ServiceName.
func NewEventBus(db *sql.DB, cfg *config.Config, log logger.Logger) *EventBus {
	log = log.With("component", "events")
	return &EventBus{
		db:    db,
		group: cfg.ServiceName,
		log:   log,
		wlog:  &slogAdapter{log: log},
	}
}

// InitializeTopics creates the message and offset tables for topics.
// Transactional publishers do not create tables, so call this at startup
// for every topic PublishTx writes to.
func (q *EventBus) InitializeTopics(topics ...string) error {
	sub, err := q.newSubscriber("schema")
	if err != nil {
		return err
	}
	defer sub.Close() //nolint:errcheck

	for _, topic := range topics {
		if err := sub.SubscribeInitialize(topic); err != nil {
			return fmt.Errorf("events: initialize %s: %w", topic, err)
		}
	}
	return nil
}

// PublishTx publishes msgs to topic through a publisher bound to tx, so the
// messages become visible to subscribers only if tx commits. Trace context
// from ctx is injected into each message's metadata.
func (q *EventBus) PublishTx(ctx context.Context, tx *sql.Tx, topic string, msgs ...*message.Message) error {
	pub, err := watermillsql.NewPublisher(
		tx,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: false,
		},
		q.wlog,
	)
	if err != nil {
		return fmt.Errorf("events: new tx publisher: %w", err)
	}
	injectTrace(ctx, msgs)
	if err := pub.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s in tx: %w", topic, err)
	}
	return nil
}

// NewEventMessage builds a message whose watermill UUID is the domain event
// id, with event_id and event_version metadata for consumer deduplication.
func NewEventMessage(eventID string, version int, payload []byte) *message.Message {
	msg := message.NewMessage(eventID, payload)
	msg.Metadata.Set("event_id", eventID)
	msg.Metadata.Set("event_version", strconv.Itoa(version))
	return msg
}

func injectTrace(ctx context.Context, msgs []*message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
}

func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	carrier := propagation.MapCarrier{}
	for k, v := range msg.Metadata {
		carrier[k] = v
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

func (q *EventBus) newSubscriber(consumer string) (*watermillsql.Subscriber, error) {
	sub, err := watermillsql.NewSubscriber(
		q.db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    q.group + "-" + consumer,
		},
		q.wlog,
	)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber %s: %w", consumer, err)
	}
	return sub, nil
}

// Subscribe runs handler for every message on topic in the consumer group
// named by consumer. The handler's context carries the publisher's trace.
//
// Ack/Nack is managed by the bus:
//   - handler returns nil   → Ack (message consumed)
//   - handler returns error → retried up to 3× with exponential backoff (1s, 2s, 4s)
//   - all retries exhausted → Nack + error forwarded to the returned channel
//
// The returned error channel is buffered (capacity 100). Callers must drain it.
// All in-flight handlers complete before Close() returns.
func (q *EventBus) Subscribe(ctx context.Context, topic, consumer string, handler Handler) (<-chan error, error) {
	sub, err := q.newSubscriber(consumer)
	if err != nil {
		return nil, err
	}
	ch, err := sub.Subscribe(ctx, topic)
	if err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("events: subscribe %s to %s: %w", consumer, topic, err)
	}

	q.mu.Lock()
	q.subscribers = append(q.subscribers, sub)
	q.mu.Unlock()

	errCh := make(chan error, 100)
	log := q.log.With("topic", topic, "consumer", consumer)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := extractTrace(ctx, msg)
			if err := retryWithBackoff(msgCtx, msg, handler, maxRetries, retryBaseDelay, log); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					log.ErrorContext(msgCtx, "events: error channel full, dropping error", "error", err)
				}
			} else {
				msg.Ack()
			}
		}
	}()

	return errCh, nil
}

// retryWithBackoff calls handler up to maxRetries times with exponential backoff.
// Returns nil on first success; returns the last error after all retries exhaust.
func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler Handler,
	maxRetries int,
	baseDelay time.Duration,
	log logger.Logger,
) error {
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt < maxRetries {
			log.WarnContext(ctx, "events: handler failed, retrying",
				"event_id", msg.Metadata.Get("event_id"),
				"attempt", attempt,
				"next_delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("events: handler failed after %d retries: %w", maxRetries, err)
}

// Ping checks the message store connection.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops all subscribers and waits up to 30s for in-flight handlers.
func (q *EventBus) Close() error {
	q.mu.Lock()
	subs := q.subscribers
	q.subscribers = nil
	q.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			return fmt.Errorf("events: close subscriber: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers to complete")
	}
	return nil
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
