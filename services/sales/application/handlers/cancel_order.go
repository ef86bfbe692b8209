package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/pkg/errhttp"
	"github.com/ghuser/salesledger/pkg/httpx"
	"github.com/ghuser/salesledger/pkg/logger"
	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
	"github.com/ghuser/salesledger/services/sales/domain"
)

// CancelAcceptedResponse is returned when a cancellation that hit a lock
// timeout has been handed to a background workflow.
type CancelAcceptedResponse struct {
	OrderID    uuid.UUID `json:"order_id"    example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	WorkflowID string    `json:"workflow_id" example:"cancel-order-7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Status     string    `json:"status"      example:"CANCELLING"`
} // @name CancelAcceptedResponse

// CancelOrderHandler handles PATCH /orders/{id}/cancel requests.
type CancelOrderHandler struct {
	orders  OrderCanceller
	retries appsvcs.CancelScheduler
	log     logger.Logger
}

// NewCancelOrderHandler returns a CancelOrderHandler. retries may be nil,
// in which case lock timeouts are returned to the client as 409.
func NewCancelOrderHandler(orders OrderCanceller, retries appsvcs.CancelScheduler, log logger.Logger) *CancelOrderHandler {
	return &CancelOrderHandler{orders: orders, retries: retries, log: log}
}

// Execute cancels an order and restores its stock.
//
//	@Summary		Cancel order
//	@Description	Cancels an order. Stock of a COMPLETED order is restored in the same transaction.
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	OrderResponse
//	@Success		202	{object}	CancelAcceptedResponse	"Lock timeout, retrying in background"
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/orders/{id}/cancel [patch]
func (h *CancelOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	actor := auth.ActorOrDefault(r.Context())
	order, err := h.orders.Cancel(r.Context(), id, actor)
	if err == nil {
		httpx.JSON(w, http.StatusOK, toOrderResponse(order))
		return
	}

	if domain.IsRetryable(err) && h.retries != nil {
		wfID, serr := h.retries.ScheduleCancel(r.Context(), id, actor)
		if serr == nil {
			h.log.InfoContext(r.Context(), "cancellation deferred to workflow", "order_id", id, "workflow_id", wfID)
			httpx.JSON(w, http.StatusAccepted, CancelAcceptedResponse{OrderID: id, WorkflowID: wfID, Status: "CANCELLING"})
			return
		}
		h.log.ErrorContext(r.Context(), "schedule cancel workflow failed", "order_id", id, "error", serr)
	}
	errhttp.WriteError(w, r, err)
}
