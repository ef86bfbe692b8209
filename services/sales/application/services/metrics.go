package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/salesledger/services/sales/domain"
)

const instrumentationName = "github.com/ghuser/salesledger/services/sales"

// salesMetrics groups the tracer and counters shared by the sales services.
// Counters are taken from the global providers installed by telemetry.Setup.
type salesMetrics struct {
	tracer    trace.Tracer
	reserved  metric.Int64Counter
	rejected  metric.Int64Counter
	cancelled metric.Int64Counter
	restored  metric.Int64Counter
}

func newSalesMetrics() *salesMetrics {
	meter := otel.Meter(instrumentationName)
	return &salesMetrics{
		tracer: otel.Tracer(instrumentationName),
		reserved: counter(meter, "sales.orders.reserved",
			"Orders whose stock reservation committed"),
		rejected: counter(meter, "sales.orders.rejected",
			"Reservations rolled back, by reason"),
		cancelled: counter(meter, "sales.orders.cancelled",
			"Orders cancelled"),
		restored: counter(meter, "sales.stock.restored",
			"Units returned to stock by cancellations"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

// fail records err on the span and returns it unchanged.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (m *salesMetrics) reject(ctx context.Context, err error) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
}

// failureReason buckets an error for metric labels.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrOrderAlreadyCancelled), errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_state"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "store_failure"
	}
}
