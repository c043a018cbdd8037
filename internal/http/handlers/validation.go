package handlers

import (
	"strings"
)

const (
	minCartQuantity = 1
	maxCartQuantity = 99
)

type ProductValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func validateProduct(p ProductRequest) []ProductValidationError {
	errs := []ProductValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ProductValidationError{Field: "Name", Description: "Name is required"})
	}
	if !p.Price.IsPositive() {
		errs = append(errs, ProductValidationError{Field: "Price", Description: "Price must be greater than zero"})
	}
	if p.StockQuantity < 0 {
		errs = append(errs, ProductValidationError{Field: "StockQuantity", Description: "Stock quantity cannot be negative"})
	}
	if p.LowStockThreshold != nil && *p.LowStockThreshold < 0 {
		errs = append(errs, ProductValidationError{Field: "LowStockThreshold", Description: "Low stock threshold cannot be negative"})
	}
	return errs
}

func validCartQuantity(q int) bool {
	return q >= minCartQuantity && q <= maxCartQuantity
}
