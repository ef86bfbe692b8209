// Package kafka relays committed domain events to a Kafka topic for
// consumers outside the monolith.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Writer is the subset of *kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes keyed messages synchronously. Messages with the same key
// land on the same partition, so per-order events stay ordered.
type Producer struct {
	w Writer
}

// NewProducer returns a Producer writing to topic on brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	})
}

// NewProducerWithWriter wraps an existing Writer.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{w: w}
}

// Publish writes one message. The trace context of ctx and the given
// headers are attached as Kafka headers.
func (p *Producer) Publish(ctx context.Context, key, value []byte, headers map[string]string) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range headers {
		carrier[k] = v
	}

	kh := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now().UTC(),
		Headers: kh,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the connection.
func (p *Producer) Close() error {
	if err := p.w.Close(); err != nil {
		return fmt.Errorf("kafka close: %w", err)
	}
	return nil
}
