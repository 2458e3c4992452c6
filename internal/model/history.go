package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryAction tags the kind of change recorded in a ProductHistory entry.
type HistoryAction string

const (
	// HistoryActionUpdate records a price and/or stock change.
	HistoryActionUpdate HistoryAction = "UPDATE"
	// HistoryActionDelete records the last known price and stock of a removed product.
	HistoryActionDelete HistoryAction = "DELETE"
)

// ProductHistory is an immutable audit record. It references the product by id only,
// so it outlives the product it describes.
type ProductHistory struct {
	ID         int64
	ProductID  int64
	Action     HistoryAction
	OldPrice   *decimal.Decimal
	NewPrice   *decimal.Decimal
	OldStock   *int
	NewStock   *int
	ActionDate time.Time
	ModifiedBy string
}

// NewUpdateHistory builds the audit record for a price/stock transition.
func NewUpdateHistory(productID int64, oldPrice, newPrice decimal.Decimal, oldStock, newStock int) *ProductHistory {
	return &ProductHistory{
		ProductID: productID,
		Action:    HistoryActionUpdate,
		OldPrice:  &oldPrice,
		NewPrice:  &newPrice,
		OldStock:  &oldStock,
		NewStock:  &newStock,
	}
}

// NewDeleteHistory builds the audit record for a deletion. There is no "after" state.
func NewDeleteHistory(productID int64, price decimal.Decimal, stock int) *ProductHistory {
	return &ProductHistory{
		ProductID: productID,
		Action:    HistoryActionDelete,
		OldPrice:  &price,
		OldStock:  &stock,
	}
}
