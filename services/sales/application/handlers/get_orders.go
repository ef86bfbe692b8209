package handlers

import (
	"net/http"

	"github.com/ghuser/salesledger/pkg/errhttp"
	"github.com/ghuser/salesledger/pkg/httpx"
)

// ListOrdersHandler handles GET /orders requests.
type ListOrdersHandler struct {
	orders OrderFinder
}

// NewListOrdersHandler returns a ListOrdersHandler.
func NewListOrdersHandler(orders OrderFinder) *ListOrdersHandler {
	return &ListOrdersHandler{orders: orders}
}

// Execute lists orders, newest first.
//
//	@Summary	List orders
//	@Tags		orders
//	@Produce	json
//	@Param		page	query		int	false	"Page number"		minimum(1)	default(1)
//	@Param		limit	query		int	false	"Items per page"	minimum(1)	maximum(100)	default(10)
//	@Success	200		{object}	OrderPage
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/orders [get]
func (h *ListOrdersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	orders, total, err := h.orders.List(r.Context(), page.opts())
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	data := make([]OrderResponse, len(orders))
	for i, o := range orders {
		data[i] = toOrderResponse(o)
	}
	httpx.JSON(w, http.StatusOK, OrderPage{
		Data:       data,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.totalPages(total),
	})
}

// GetOrderHandler handles GET /orders/{id} requests.
type GetOrderHandler struct {
	orders OrderFinder
}

// NewGetOrderHandler returns a GetOrderHandler.
func NewGetOrderHandler(orders OrderFinder) *GetOrderHandler {
	return &GetOrderHandler{orders: orders}
}

// Execute returns one order with its items and their products.
//
//	@Summary	Get order
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		string	true	"Order ID"	format(uuid)
//	@Success	200	{object}	OrderResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/orders/{id} [get]
func (h *GetOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}
