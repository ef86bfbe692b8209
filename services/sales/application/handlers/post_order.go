package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/pkg/errhttp"
	"github.com/ghuser/salesledger/pkg/httpx"
	pkgvalidator "github.com/ghuser/salesledger/pkg/validator"
	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
)

// OrderItemRequest is one requested line.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Quantity  int       `json:"quantity"   example:"2"`
} // @name OrderItemRequest

// CreateOrderRequest is the request body for POST /orders.
// Empty item lists and non-positive quantities are rejected with 400.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"max=100"`
} // @name CreateOrderRequest

// PostOrderHandler handles POST /orders requests.
type PostOrderHandler struct {
	orders OrderReserver
}

// NewPostOrderHandler returns a PostOrderHandler.
func NewPostOrderHandler(orders OrderReserver) *PostOrderHandler {
	return &PostOrderHandler{orders: orders}
}

// Execute reserves stock for every line and creates a COMPLETED order.
//
//	@Summary		Create order
//	@Description	Atomically reserves stock for all items at their current prices. Nothing is written if any line fails.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateOrderRequest	true	"Order items"
//	@Success		201		{object}	OrderResponse
//	@Failure		400		{object}	InsufficientStockResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Lock timeout, retry"
//	@Failure		422		{object}	ValidationErrorResponse
//	@Router			/orders [post]
func (h *PostOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateOrderRequest](w, r)
	if !ok {
		return
	}

	items := make([]appsvcs.ReserveItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = appsvcs.ReserveItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	order, err := h.orders.Execute(r.Context(), items, auth.ActorOrDefault(r.Context()))
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}
