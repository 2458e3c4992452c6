package repository

import (
	"context"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/shopspring/decimal"
)

// TxOperation is a unit of work executed against a transaction-bound store.
type TxOperation func(ctx context.Context, store CatalogStore) error

// CatalogStore defines the persistence contract of the product catalog.
// Absent records are reported with ErrNotFound.
type CatalogStore interface {
	ListAll(ctx context.Context) ([]*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*model.Product, error)
	ListBySupplier(ctx context.Context, supplierID int64) ([]*model.Product, error)
	ListLowStock(ctx context.Context) ([]*model.Product, error)
	Search(ctx context.Context, term string) ([]*model.Product, error)
	ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.Product, error)
	GetHistory(ctx context.Context, productID int64) ([]*model.ProductHistory, error)
	GetCategoryHierarchy(ctx context.Context) ([]*model.Category, error)
	GetStats(ctx context.Context) (*model.ProductStats, error)

	// Insert stores a new product and returns its assigned id.
	Insert(ctx context.Context, product *model.Product) (int64, error)
	// Update overwrites an existing product. Updating a missing id is a silent no-op.
	Update(ctx context.Context, product *model.Product) error
	// Delete removes a product and records its final price and stock. Deleting a missing id is a no-op.
	Delete(ctx context.Context, productID int64) error
	// UpdateStock sets the stock quantity of an existing product, failing with ErrNotFound otherwise.
	UpdateStock(ctx context.Context, productID int64, newQuantity int) error
	// RunInTransaction executes ops as one all-or-nothing unit.
	RunInTransaction(ctx context.Context, ops ...TxOperation) error

	Close() error
}
