package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product with its optional category and supplier links.
type Product struct {
	ID             int64
	Name           string           `validate:"notblank,max=100"`
	Description    string           `validate:"max=500"`
	Price          decimal.Decimal  `validate:"min=0"`
	StockQuantity  int              `validate:"min=0"`
	CategoryID     *int64           `validate:"omitempty,gt=0"`
	SupplierID     *int64           `validate:"omitempty,gt=0"`
	SKU            string           `validate:"max=50"`
	Weight         *decimal.Decimal `validate:"omitempty,min=0"`
	Dimensions     string           `validate:"max=50"`
	IsDiscontinued bool
	ReorderLevel   int
	CreatedDate    time.Time
	ModifiedDate   *time.Time

	// Category and Supplier are resolved by the store on read and ignored on write.
	Category *Category
	Supplier *Supplier
}

// IsLowStock reports whether the product is at or below its reorder level while still active.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.ReorderLevel && !p.IsDiscontinued
}

// String renders the product for display.
func (p *Product) String() string {
	modified := "Not modified"
	if p.ModifiedDate != nil {
		modified = p.ModifiedDate.Format(time.DateTime)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product ID: %d\n", p.ID)
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Price: $%s\n", p.Price.StringFixed(2))
	fmt.Fprintf(&b, "Stock: %d\n", p.StockQuantity)
	fmt.Fprintf(&b, "Created: %s\n", p.CreatedDate.Format(time.DateTime))
	fmt.Fprintf(&b, "Modified: %s", modified)
	return b.String()
}
