package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	pkgworkflows "github.com/ghuser/salesledger/pkg/workflows"
)

// Scheduler starts CancelOrderWorkflow executions.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler returns a Scheduler on tc's client and task queue.
func NewScheduler(tc *pkgworkflows.TemporalClient) *Scheduler {
	return &Scheduler{client: tc.Client, taskQueue: tc.TaskQueue}
}

// ScheduleCancel starts a cancel workflow for orderID and returns its
// workflow id. The id is derived from the order so repeated requests for
// the same order attach to the running execution.
func (s *Scheduler) ScheduleCancel(ctx context.Context, orderID uuid.UUID, actor string) (string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        CancelWorkflowID(orderID),
		TaskQueue: s.taskQueue,
	}, CancelOrderWorkflowName, CancelOrderInput{OrderID: orderID.String(), Actor: actor})
	if err != nil {
		return "", fmt.Errorf("start cancel workflow: %w", err)
	}
	return run.GetID(), nil
}

// CancelWorkflowID is the workflow id used for an order's cancellation.
func CancelWorkflowID(orderID uuid.UUID) string {
	return "cancel-order-" + orderID.String()
}

// NewWorker builds a Temporal worker on tc's task queue with the sales
// workflows and activities registered.
func NewWorker(tc *pkgworkflows.TemporalClient, acts *Activities) worker.Worker {
	w := worker.New(tc.Client, tc.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(CancelOrderWorkflow, workflow.RegisterOptions{Name: CancelOrderWorkflowName})
	w.RegisterActivityWithOptions(acts.CancelOrder, activity.RegisterOptions{Name: CancelOrderActivityName})
	return w
}
