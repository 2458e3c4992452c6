// Package validation holds the catalog input rules shared by the service façade and the store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

var fieldLabels = map[string]string{
	"Name":          "product name",
	"Description":   "description",
	"Price":         "price",
	"StockQuantity": "stock quantity",
	"CategoryID":    "category id",
	"SupplierID":    "supplier id",
	"SKU":           "sku",
	"Weight":        "weight",
	"Dimensions":    "dimensions",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return v
}

// decimalValue lets numeric tags such as min=0 apply to decimal fields.
func decimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Product checks the product invariants: non-blank name, non-negative price, stock and weight,
// and bounded text lengths.
func Product(p *model.Product) error {
	if p == nil {
		return &repository.ValidationError{Field: "Product", Reason: "product is required"}
	}
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return toValidationError(fieldErrs[0])
	}
	return fmt.Errorf("failed to validate product: %w", err)
}

// StockQuantity checks a stock level passed on its own.
func StockQuantity(qty int) error {
	if qty < 0 {
		return &repository.ValidationError{Field: "StockQuantity", Reason: "stock quantity cannot be negative"}
	}
	return nil
}

// PriceRange rejects ranges whose lower bound exceeds the upper bound.
func PriceRange(minPrice, maxPrice decimal.Decimal) error {
	if minPrice.GreaterThan(maxPrice) {
		return repository.ErrInvalidRange
	}
	return nil
}

func toValidationError(fe validator.FieldError) *repository.ValidationError {
	label, ok := fieldLabels[fe.StructField()]
	if !ok {
		label = strings.ToLower(fe.StructField())
	}

	var reason string
	switch fe.Tag() {
	case "notblank", "required":
		reason = label + " is required"
	case "min":
		reason = label + " cannot be negative"
	case "max":
		reason = fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "gt":
		reason = label + " must be a positive id"
	default:
		reason = label + " is invalid"
	}
	return &repository.ValidationError{Field: fe.StructField(), Reason: reason}
}
