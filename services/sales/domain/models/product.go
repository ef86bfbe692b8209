package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxCategoryLength = 100
	priceScale        = 2
)

// MaxStock is the largest value the INTEGER stock and quantity columns hold.
const MaxStock = math.MaxInt32

var (
	// maxPrice is the largest value a NUMERIC(10,2) column holds.
	maxPrice = decimal.RequireFromString("99999999.99")

	// MaxAmount is the largest line subtotal or order total a NUMERIC(14,2)
	// column holds.
	MaxAmount = decimal.RequireFromString("999999999999.99")
)

// Product is a sellable SKU. StockQuantity is only changed through the
// inventory ledger while the row is locked.
type Product struct {
	ID            uuid.UUID
	Name          ProductName
	Category      string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CreatedBy     string
	UpdatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProduct constructs a valid Product with a generated ID.
func NewProduct(name ProductName, category, description string, price decimal.Decimal, stock int, actor string) (*Product, error) {
	if err := ValidateCategory(category); err != nil {
		return nil, err
	}
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}
	if err := ValidateStock(stock); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Product{
		ID:            uuid.New(),
		Name:          name,
		Category:      strings.TrimSpace(category),
		Description:   description,
		Price:         price,
		StockQuantity: stock,
		CreatedBy:     actor,
		UpdatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ValidatePrice checks price is non-negative, fits NUMERIC(10,2) and carries
// no more than two decimal places.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if price.GreaterThan(maxPrice) {
		return fmt.Errorf("price must not exceed %s", maxPrice)
	}
	if !price.Equal(price.Round(priceScale)) {
		return fmt.Errorf("price must have at most %d decimal places", priceScale)
	}
	return nil
}

// ValidateStock checks stock is within [0, MaxStock].
func ValidateStock(stock int) error {
	if stock < 0 {
		return fmt.Errorf("stock quantity must not be negative")
	}
	if stock > MaxStock {
		return fmt.Errorf("stock quantity must not exceed %d", MaxStock)
	}
	return nil
}

// ValidateCategory checks the category is present and short enough.
func ValidateCategory(category string) error {
	c := strings.TrimSpace(category)
	if c == "" {
		return fmt.Errorf("category is required")
	}
	if len(c) > maxCategoryLength {
		return fmt.Errorf("category must not exceed %d characters", maxCategoryLength)
	}
	return nil
}

// Clone returns a copy safe to hand out of a locked scope.
func (p *Product) Clone() *Product {
	c := *p
	return &c
}
