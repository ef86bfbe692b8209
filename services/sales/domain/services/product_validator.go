package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/services/sales/domain/models"
)

// ValidateName enforces business rules for ProductName beyond the length
// checks in the ProductName constructor:
//   - No control characters
//   - No consecutive spaces
func ValidateName(name models.ProductName) error {
	s := name.String()

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("product name must not contain control characters")
		}
	}

	if strings.Contains(s, "  ") {
		return fmt.Errorf("product name must not contain consecutive spaces")
	}

	return nil
}

// ValidateProductForSave performs cross-field checks on a Product before it
// is written. Stock and price constraints mirror the table CHECK constraints.
func ValidateProductForSave(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product cannot be nil")
	}
	if p.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}
	if err := ValidateName(p.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}
	if err := models.ValidateCategory(p.Category); err != nil {
		return err
	}
	if err := models.ValidatePrice(p.Price); err != nil {
		return err
	}
	return models.ValidateStock(p.StockQuantity)
}
