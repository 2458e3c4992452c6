package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iyhunko/product-catalog/internal/metrics"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/validation"
	"github.com/shopspring/decimal"
)

// CatalogService validates catalog operations before delegating them to the store.
// It shares the store's session and is therefore not safe for concurrent use.
type CatalogService struct {
	store repository.CatalogStore
}

func NewCatalogService(store repository.CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// AddProduct validates and inserts a product, returning its id.
func (cs *CatalogService) AddProduct(ctx context.Context, product *model.Product) (int64, error) {
	if err := cs.validate("add_product", validation.Product(product)); err != nil {
		return 0, err
	}

	id, err := cs.store.Insert(ctx, product)
	if err != nil {
		return 0, err
	}

	metrics.ProductsInserted.Inc()
	slog.Info("product added", slog.Int64("product_id", id), slog.String("name", product.Name))
	return id, nil
}

// UpdateProduct validates and overwrites a product. A missing product is left alone.
func (cs *CatalogService) UpdateProduct(ctx context.Context, product *model.Product) error {
	if err := cs.validate("update_product", validation.Product(product)); err != nil {
		return err
	}

	if err := cs.store.Update(ctx, product); err != nil {
		return err
	}

	metrics.ProductsUpdated.Inc()
	return nil
}

// UpdateStock validates the quantity and sets it on an existing product.
func (cs *CatalogService) UpdateStock(ctx context.Context, productID int64, newQuantity int) error {
	if err := cs.validate("update_stock", validation.StockQuantity(newQuantity)); err != nil {
		return err
	}

	if err := cs.store.UpdateStock(ctx, productID, newQuantity); err != nil {
		return err
	}

	metrics.ProductsUpdated.Inc()
	slog.Info("stock updated", slog.Int64("product_id", productID), slog.Int("stock_quantity", newQuantity))
	return nil
}

// RemoveProduct deletes a product, recording its final state in the history.
func (cs *CatalogService) RemoveProduct(ctx context.Context, productID int64) error {
	if err := cs.store.Delete(ctx, productID); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	slog.Info("product removed", slog.Int64("product_id", productID))
	return nil
}

// RunInTransaction executes ops as one unit and records the outcome.
func (cs *CatalogService) RunInTransaction(ctx context.Context, ops ...repository.TxOperation) error {
	if err := cs.store.RunInTransaction(ctx, ops...); err != nil {
		metrics.TransactionsTotal.WithLabelValues(metrics.OutcomeRolledBack).Inc()
		return err
	}
	metrics.TransactionsTotal.WithLabelValues(metrics.OutcomeCommitted).Inc()
	return nil
}

func (cs *CatalogService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return cs.store.ListAll(ctx)
}

func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return cs.store.GetByID(ctx, id)
}

func (cs *CatalogService) ListByCategory(ctx context.Context, categoryID int64) ([]*model.Product, error) {
	return cs.store.ListByCategory(ctx, categoryID)
}

func (cs *CatalogService) ListBySupplier(ctx context.Context, supplierID int64) ([]*model.Product, error) {
	return cs.store.ListBySupplier(ctx, supplierID)
}

func (cs *CatalogService) ListLowStock(ctx context.Context) ([]*model.Product, error) {
	return cs.store.ListLowStock(ctx)
}

func (cs *CatalogService) Search(ctx context.Context, term string) ([]*model.Product, error) {
	return cs.store.Search(ctx, term)
}

func (cs *CatalogService) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.Product, error) {
	if err := cs.validate("list_by_price_range", validation.PriceRange(minPrice, maxPrice)); err != nil {
		return nil, err
	}
	return cs.store.ListByPriceRange(ctx, minPrice, maxPrice)
}

func (cs *CatalogService) GetHistory(ctx context.Context, productID int64) ([]*model.ProductHistory, error) {
	return cs.store.GetHistory(ctx, productID)
}

func (cs *CatalogService) GetCategoryHierarchy(ctx context.Context) ([]*model.Category, error) {
	return cs.store.GetCategoryHierarchy(ctx)
}

func (cs *CatalogService) GetStats(ctx context.Context) (*model.ProductStats, error) {
	return cs.store.GetStats(ctx)
}

// validate counts rejected input per operation and passes err through.
func (cs *CatalogService) validate(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrValidation) {
		metrics.ValidationFailures.WithLabelValues(operation).Inc()
	}
	slog.Debug("catalog operation rejected", slog.String("operation", operation), slog.Any("err", err))
	return err
}
