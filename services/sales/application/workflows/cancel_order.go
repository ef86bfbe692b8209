// Package workflows holds the durable workflows of the sales bounded context.
//
// CancelOrderWorkflow retries a cancellation that failed on a row-lock
// timeout. Domain rejections (unknown order, already cancelled, invalid
// transition) are returned as non-retryable application errors so the
// workflow stops at once.
package workflows

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
)

// Registered names. Keep stable: running workflows refer to them.
const (
	CancelOrderWorkflowName = "CancelOrderWorkflow"
	CancelOrderActivityName = "CancelOrder"
)

// Application error types that stop the retry loop.
const (
	ErrTypeValidation       = "ValidationError"
	ErrTypeOrderNotFound    = "OrderNotFound"
	ErrTypeAlreadyCancelled = "OrderAlreadyCancelled"
	ErrTypeInvalidState     = "InvalidTransition"
)

// CancelOrderInput is the workflow and activity argument.
type CancelOrderInput struct {
	OrderID string `json:"order_id"`
	Actor   string `json:"actor"`
}

// CancelOrderResult reports the order's final status.
type CancelOrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// CancelOrderWorkflow runs the cancel activity with exponential backoff
// until it succeeds or fails with a non-retryable domain error. An order
// found already cancelled counts as done.
func CancelOrderWorkflow(ctx workflow.Context, in CancelOrderInput) (CancelOrderResult, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    10,
			NonRetryableErrorTypes: []string{
				ErrTypeValidation,
				ErrTypeOrderNotFound,
				ErrTypeAlreadyCancelled,
				ErrTypeInvalidState,
			},
		},
	})

	var res CancelOrderResult
	err := workflow.ExecuteActivity(ctx, CancelOrderActivityName, in).Get(ctx, &res)
	if err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == ErrTypeAlreadyCancelled {
			logger.Info("order already cancelled", "order_id", in.OrderID)
			return CancelOrderResult{OrderID: in.OrderID, Status: string(models.StatusCancelled)}, nil
		}
		logger.Error("cancel order failed", "order_id", in.OrderID, "error", err)
		return CancelOrderResult{}, err
	}

	logger.Info("order cancelled", "order_id", res.OrderID)
	return res, nil
}

// Canceller is the application service the activity drives.
type Canceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID, actor string) (*models.Order, error)
}

// Activities binds the cancel activity to a Canceller.
type Activities struct {
	orders Canceller
}

// NewActivities returns Activities backed by c.
func NewActivities(c Canceller) *Activities {
	return &Activities{orders: c}
}

// CancelOrder runs one cancellation attempt. Lock timeouts and store
// failures are returned as plain errors and retried by the policy.
func (a *Activities) CancelOrder(ctx context.Context, in CancelOrderInput) (CancelOrderResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("cancelling order", "order_id", in.OrderID, "attempt", activity.GetInfo(ctx).Attempt)

	id, err := uuid.Parse(in.OrderID)
	if err != nil {
		return CancelOrderResult{}, temporal.NewNonRetryableApplicationError("invalid order id", ErrTypeValidation, err)
	}

	o, err := a.orders.Cancel(ctx, id, in.Actor)
	if err != nil {
		if errType, ok := nonRetryableType(err); ok {
			return CancelOrderResult{}, temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
		}
		return CancelOrderResult{}, err
	}
	return CancelOrderResult{OrderID: o.ID.String(), Status: string(o.Status)}, nil
}

func nonRetryableType(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrOrderAlreadyCancelled):
		return ErrTypeAlreadyCancelled, true
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrProductNotFound):
		return ErrTypeOrderNotFound, true
	case errors.Is(err, domain.ErrInvalidTransition):
		return ErrTypeInvalidState, true
	case errors.Is(err, domain.ErrValidation):
		return ErrTypeValidation, true
	default:
		return "", false
	}
}
