package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/pkg/errhttp"
	"github.com/ghuser/salesledger/pkg/httpx"
	pkgvalidator "github.com/ghuser/salesledger/pkg/validator"
	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
)

// CreateProductRequest is the request body for POST /products.
type CreateProductRequest struct {
	Name          string           `json:"name"           validate:"required,max=255" example:"Mechanical Keyboard"`
	Category      string           `json:"category"       validate:"required,max=100" example:"peripherals"`
	Description   string           `json:"description"                                example:"Hot-swappable, 87 keys"`
	Price         *decimal.Decimal `json:"price"          validate:"required,gte=0"   example:"100.00" swaggertype:"string"`
	StockQuantity *int             `json:"stock_quantity" validate:"required,gte=0,lte=2147483647" example:"10"`
} // @name CreateProductRequest

// UpdateProductRequest is the request body for PATCH /products/{id}.
// Omitted fields are left unchanged.
type UpdateProductRequest struct {
	Name          *string          `json:"name,omitempty"           validate:"omitempty,min=1,max=255" example:"Mechanical Keyboard"`
	Category      *string          `json:"category,omitempty"       validate:"omitempty,min=1,max=100" example:"peripherals"`
	Description   *string          `json:"description,omitempty"                                       example:"Hot-swappable, 87 keys"`
	Price         *decimal.Decimal `json:"price,omitempty"          validate:"omitempty,gte=0"         example:"120.00" swaggertype:"string"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,gte=0,lte=2147483647" example:"25"`
} // @name UpdateProductRequest

// PostProductHandler handles POST /products requests.
type PostProductHandler struct {
	products ProductManager
}

// NewPostProductHandler returns a PostProductHandler.
func NewPostProductHandler(products ProductManager) *PostProductHandler {
	return &PostProductHandler{products: products}
}

// Execute creates a product.
//
//	@Summary	Create product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateProductRequest	true	"Product"
//	@Success	201		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Failure	422		{object}	ValidationErrorResponse
//	@Router		/products [post]
func (h *PostProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateProductRequest](w, r)
	if !ok {
		return
	}

	p, err := h.products.Create(r.Context(), appsvcs.CreateProductInput{
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Price:         *req.Price,
		StockQuantity: *req.StockQuantity,
	}, auth.ActorOrDefault(r.Context()))
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProductResponse(p))
}

// ListProductsHandler handles GET /products requests.
type ListProductsHandler struct {
	products ProductManager
}

// NewListProductsHandler returns a ListProductsHandler.
func NewListProductsHandler(products ProductManager) *ListProductsHandler {
	return &ListProductsHandler{products: products}
}

// Execute lists products, newest first.
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Param		page	query		int	false	"Page number"		minimum(1)	default(1)
//	@Param		limit	query		int	false	"Items per page"	minimum(1)	maximum(100)	default(10)
//	@Success	200		{object}	ProductPage
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/products [get]
func (h *ListProductsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	products, total, err := h.products.List(r.Context(), page.opts())
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	data := make([]ProductResponse, len(products))
	for i, p := range products {
		data[i] = toProductResponse(p)
	}
	httpx.JSON(w, http.StatusOK, ProductPage{
		Data:       data,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.totalPages(total),
	})
}

// GetProductHandler handles GET /products/{id} requests.
type GetProductHandler struct {
	products ProductManager
}

// NewGetProductHandler returns a GetProductHandler.
func NewGetProductHandler(products ProductManager) *GetProductHandler {
	return &GetProductHandler{products: products}
}

// Execute returns one product. Served from cache when available.
//
//	@Summary	Get product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"	format(uuid)
//	@Success	200	{object}	ProductResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (h *GetProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(p))
}

// PatchProductHandler handles PATCH /products/{id} requests.
type PatchProductHandler struct {
	products ProductManager
}

// NewPatchProductHandler returns a PatchProductHandler.
func NewPatchProductHandler(products ProductManager) *PatchProductHandler {
	return &PatchProductHandler{products: products}
}

// Execute applies a partial update. A stock_quantity change is applied
// under the same row lock reservations take.
//
//	@Summary	Update product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Product ID"	format(uuid)
//	@Param		request	body		UpdateProductRequest	true	"Fields to change"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Failure	422		{object}	ValidationErrorResponse
//	@Router		/products/{id} [patch]
func (h *PatchProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateProductRequest](w, r)
	if !ok {
		return
	}

	p, err := h.products.Update(r.Context(), id, appsvcs.UpdateProductInput{
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}, auth.ActorOrDefault(r.Context()))
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProductHandler handles DELETE /products/{id} requests.
type DeleteProductHandler struct {
	products ProductManager
}

// NewDeleteProductHandler returns a DeleteProductHandler.
func NewDeleteProductHandler(products ProductManager) *DeleteProductHandler {
	return &DeleteProductHandler{products: products}
}

// Execute deletes a product that no order references.
//
//	@Summary	Delete product
//	@Tags		products
//	@Param		id	path	string	true	"Product ID"	format(uuid)
//	@Success	204
//	@Failure	400	{object}	ErrorResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse	"Referenced by orders"
//	@Router		/products/{id} [delete]
func (h *DeleteProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
