package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ProductName is a value object for a display name of 1 to 255 characters
// with no surrounding whitespace.
type ProductName string

const maxProductNameLength = 255

// NewProductName trims s and validates its length.
func NewProductName(s string) (ProductName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("product name is required")
	}
	if utf8.RuneCountInString(s) > maxProductNameLength {
		return "", fmt.Errorf("product name must not exceed %d characters", maxProductNameLength)
	}
	return ProductName(s), nil
}

func (n ProductName) String() string {
	return string(n)
}
