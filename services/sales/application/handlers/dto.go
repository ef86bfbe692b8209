package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"order not found"`
} // @name ErrorResponse

// ValidationErrorResponse is returned when a request body fails validation.
type ValidationErrorResponse struct {
	Error  string            `json:"error"  example:"Validation failed"`
	Fields map[string]string `json:"fields"`
} // @name ValidationErrorResponse

// InsufficientStockResponse is returned when a line cannot be satisfied.
type InsufficientStockResponse struct {
	Error     string `json:"error"      example:"Insufficient stock for product Widget. Available: 1, Requested: 2"`
	ProductID string `json:"product_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Available int    `json:"available"  example:"1"`
	Requested int    `json:"requested"  example:"2"`
} // @name InsufficientStockResponse

// ProductResponse is the public representation of a product.
type ProductResponse struct {
	ID            uuid.UUID `json:"id"             example:"123e4567-e89b-12d3-a456-426614174000"`
	Name          string    `json:"name"           example:"Mechanical Keyboard"`
	Category      string    `json:"category"       example:"peripherals"`
	Description   string    `json:"description"    example:"Hot-swappable, 87 keys"`
	Price         string    `json:"price"          example:"100.00"`
	StockQuantity int       `json:"stock_quantity" example:"10"`
	CreatedBy     string    `json:"created_by"     example:"admin"`
	UpdatedBy     string    `json:"updated_by"     example:"admin"`
	CreatedAt     time.Time `json:"created_at"     example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at"     example:"2024-01-15T10:30:00Z"`
} // @name ProductResponse

// OrderItemResponse is one line of an order. UnitPrice is the price frozen
// when the order was reserved.
type OrderItemResponse struct {
	ID        uuid.UUID        `json:"id"                example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	ProductID uuid.UUID        `json:"product_id"        example:"123e4567-e89b-12d3-a456-426614174000"`
	Product   *ProductResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"          example:"2"`
	UnitPrice string           `json:"unit_price"        example:"100.00"`
	Subtotal  string           `json:"subtotal"          example:"200.00"`
} // @name OrderItemResponse

// OrderResponse is the public representation of an order.
type OrderResponse struct {
	ID        uuid.UUID           `json:"id"         example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Items     []OrderItemResponse `json:"items"`
	Total     string              `json:"total"      example:"200.00"`
	Status    string              `json:"status"     example:"COMPLETED" enums:"PENDING,COMPLETED,CANCELLED"`
	CreatedBy string              `json:"created_by" example:"admin"`
	UpdatedBy string              `json:"updated_by" example:"admin"`
	CreatedAt time.Time           `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time           `json:"updated_at" example:"2024-01-15T10:30:00Z"`
} // @name OrderResponse

// ProductPage is a page of products.
type ProductPage struct {
	Data       []ProductResponse `json:"data"`
	Total      int               `json:"total"       example:"42"`
	Page       int               `json:"page"        example:"1"`
	Limit      int               `json:"limit"       example:"10"`
	TotalPages int               `json:"total_pages" example:"5"`
} // @name ProductPage

// OrderPage is a page of orders.
type OrderPage struct {
	Data       []OrderResponse `json:"data"`
	Total      int             `json:"total"       example:"42"`
	Page       int             `json:"page"        example:"1"`
	Limit      int             `json:"limit"       example:"10"`
	TotalPages int             `json:"total_pages" example:"5"`
} // @name OrderPage

func toProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name.String(),
		Category:      p.Category,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		CreatedBy:     p.CreatedBy,
		UpdatedBy:     p.UpdatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Subtotal:  it.Subtotal.StringFixed(2),
		}
		if it.Product != nil {
			pr := toProductResponse(it.Product)
			items[i].Product = &pr
		}
	}
	return OrderResponse{
		ID:        o.ID,
		Items:     items,
		Total:     o.Total.StringFixed(2),
		Status:    string(o.Status),
		CreatedBy: o.CreatedBy,
		UpdatedBy: o.UpdatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// pageRequest is the parsed ?page=&limit= query.
type pageRequest struct {
	Page  int
	Limit int
}

func (p pageRequest) opts() repositories.QueryOpts {
	return repositories.QueryOpts{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}

func (p pageRequest) totalPages(total int) int {
	return (total + p.Limit - 1) / p.Limit
}

// parsePage reads page (≥ 1, default 1) and limit (1..100, default 10).
func parsePage(r *http.Request) (pageRequest, error) {
	pr := pageRequest{Page: 1, Limit: defaultPageLimit}
	q := r.URL.Query()

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return pr, fmt.Errorf("%w: page must be an integer >= 1", domain.ErrValidation)
		}
		pr.Page = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPageLimit {
			return pr, fmt.Errorf("%w: limit must be an integer between 1 and %d", domain.ErrValidation, maxPageLimit)
		}
		pr.Limit = n
	}
	return pr, nil
}

// parseID reads the {id} path parameter.
func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid UUID %q", domain.ErrValidation, raw)
	}
	return id, nil
}
