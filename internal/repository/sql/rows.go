package sql

import (
	"database/sql"
	"time"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/shopspring/decimal"
)

// productRow is a product joined with its category and supplier.
type productRow struct {
	ID             int64               `db:"product_id"`
	Name           string              `db:"name"`
	Description    string              `db:"description"`
	Price          decimal.Decimal     `db:"price"`
	StockQuantity  int                 `db:"stock_quantity"`
	CategoryID     sql.NullInt64       `db:"category_id"`
	SupplierID     sql.NullInt64       `db:"supplier_id"`
	SKU            string              `db:"sku"`
	Weight         decimal.NullDecimal `db:"weight"`
	Dimensions     string              `db:"dimensions"`
	IsDiscontinued bool                `db:"is_discontinued"`
	ReorderLevel   int                 `db:"reorder_level"`
	CreatedDate    time.Time           `db:"created_date"`
	ModifiedDate   sql.NullTime        `db:"modified_date"`

	CategoryName        sql.NullString `db:"category_name"`
	CategoryDescription sql.NullString `db:"category_description"`
	CategoryParentID    sql.NullInt64  `db:"category_parent_id"`
	CategoryCreatedDate sql.NullTime   `db:"category_created_date"`

	SupplierName        sql.NullString `db:"supplier_name"`
	SupplierContactName sql.NullString `db:"supplier_contact_name"`
	SupplierEmail       sql.NullString `db:"supplier_email"`
	SupplierPhone       sql.NullString `db:"supplier_phone"`
	SupplierAddress     sql.NullString `db:"supplier_address"`
	SupplierCountry     sql.NullString `db:"supplier_country"`
	SupplierIsActive    sql.NullBool   `db:"supplier_is_active"`
	SupplierCreatedDate sql.NullTime   `db:"supplier_created_date"`
}

func (r productRow) toModel() *model.Product {
	p := &model.Product{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		StockQuantity:  r.StockQuantity,
		CategoryID:     nullInt64Ptr(r.CategoryID),
		SupplierID:     nullInt64Ptr(r.SupplierID),
		SKU:            r.SKU,
		Weight:         nullDecimalPtr(r.Weight),
		Dimensions:     r.Dimensions,
		IsDiscontinued: r.IsDiscontinued,
		ReorderLevel:   r.ReorderLevel,
		CreatedDate:    r.CreatedDate,
		ModifiedDate:   nullTimePtr(r.ModifiedDate),
	}

	if p.CategoryID != nil && r.CategoryName.Valid {
		p.Category = &model.Category{
			ID:               *p.CategoryID,
			Name:             r.CategoryName.String,
			Description:      r.CategoryDescription.String,
			ParentCategoryID: nullInt64Ptr(r.CategoryParentID),
			CreatedDate:      r.CategoryCreatedDate.Time,
		}
	}
	if p.SupplierID != nil && r.SupplierName.Valid {
		p.Supplier = &model.Supplier{
			ID:          *p.SupplierID,
			Name:        r.SupplierName.String,
			ContactName: r.SupplierContactName.String,
			Email:       r.SupplierEmail.String,
			Phone:       r.SupplierPhone.String,
			Address:     r.SupplierAddress.String,
			Country:     r.SupplierCountry.String,
			IsActive:    r.SupplierIsActive.Bool,
			CreatedDate: r.SupplierCreatedDate.Time,
		}
	}
	return p
}

type historyRow struct {
	ID         int64               `db:"history_id"`
	ProductID  int64               `db:"product_id"`
	Action     string              `db:"action"`
	OldPrice   decimal.NullDecimal `db:"old_price"`
	NewPrice   decimal.NullDecimal `db:"new_price"`
	OldStock   sql.NullInt64       `db:"old_stock"`
	NewStock   sql.NullInt64       `db:"new_stock"`
	ActionDate time.Time           `db:"action_date"`
	ModifiedBy string              `db:"modified_by"`
}

func (r historyRow) toModel() *model.ProductHistory {
	return &model.ProductHistory{
		ID:         r.ID,
		ProductID:  r.ProductID,
		Action:     model.HistoryAction(r.Action),
		OldPrice:   nullDecimalPtr(r.OldPrice),
		NewPrice:   nullDecimalPtr(r.NewPrice),
		OldStock:   nullIntPtr(r.OldStock),
		NewStock:   nullIntPtr(r.NewStock),
		ActionDate: r.ActionDate,
		ModifiedBy: r.ModifiedBy,
	}
}

type categoryRow struct {
	ID          int64         `db:"category_id"`
	Name        string        `db:"name"`
	Description string        `db:"description"`
	ParentID    sql.NullInt64 `db:"parent_category_id"`
	CreatedDate time.Time     `db:"created_date"`
}

func (r categoryRow) toModel() *model.Category {
	return &model.Category{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		ParentCategoryID: nullInt64Ptr(r.ParentID),
		CreatedDate:      r.CreatedDate,
	}
}

type statsRow struct {
	ID                int64           `db:"stat_id"`
	TotalProducts     int             `db:"total_products"`
	AveragePrice      decimal.Decimal `db:"average_price"`
	TotalStockValue   decimal.Decimal `db:"total_stock_value"`
	LowStockCount     int             `db:"low_stock_count"`
	DiscontinuedCount int             `db:"discontinued_count"`
	LastUpdated       time.Time       `db:"last_updated"`
}

func (r statsRow) toModel() *model.ProductStats {
	return &model.ProductStats{
		ID:                r.ID,
		TotalProducts:     r.TotalProducts,
		AveragePrice:      r.AveragePrice,
		TotalStockValue:   r.TotalStockValue,
		LowStockCount:     r.LowStockCount,
		DiscontinuedCount: r.DiscontinuedCount,
		LastUpdated:       r.LastUpdated,
	}
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullDecimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
