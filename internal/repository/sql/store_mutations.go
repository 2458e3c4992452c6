package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/validation"
	"github.com/shopspring/decimal"
)

// lockedProduct is the audited state of a row held under FOR UPDATE.
type lockedProduct struct {
	Price         decimal.Decimal `db:"price"`
	StockQuantity int             `db:"stock_quantity"`
}

// normalize rounds monetary and weight values to the precision stored by the schema.
func normalize(product *model.Product) {
	product.Price = product.Price.Round(2)
	if product.Weight != nil {
		w := product.Weight.Round(2)
		product.Weight = &w
	}
}

// Insert stores a new product, writes the assigned id back into it and returns the id.
func (s *Store) Insert(ctx context.Context, product *model.Product) (int64, error) {
	if err := validation.Product(product); err != nil {
		return 0, err
	}
	normalize(product)
	createdDate := s.now()

	query := `INSERT INTO products (name, description, price, stock_quantity, category_id, supplier_id,
	          sku, weight, dimensions, is_discontinued, reorder_level, created_date, modified_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULL)
	          RETURNING product_id`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return 0, persistenceError(ctx, "insert product", fmt.Errorf("failed to prepare insert statement: %w", err))
	}
	defer stmt.Close()

	var id int64
	err = stmt.QueryRowxContext(ctx,
		product.Name, product.Description, product.Price, product.StockQuantity,
		product.CategoryID, product.SupplierID, product.SKU, product.Weight, product.Dimensions,
		product.IsDiscontinued, product.ReorderLevel, createdDate,
	).Scan(&id)
	if err != nil {
		return 0, persistenceError(ctx, "insert product", fmt.Errorf("failed to insert product: %w", err),
			slog.String("name", product.Name))
	}

	product.ID = id
	product.CreatedDate = createdDate
	product.ModifiedDate = nil
	return id, nil
}

// Update overwrites every mutable field of an existing product and records a history entry
// when price or stock changed. Updating a product that does not exist does nothing.
func (s *Store) Update(ctx context.Context, product *model.Product) error {
	if err := validation.Product(product); err != nil {
		return err
	}
	normalize(product)

	var modifiedDate *time.Time
	err := s.withinTransaction(ctx, "update product", func(tx *Store) error {
		current, found, err := tx.lockProduct(ctx, "update product", product.ID)
		if err != nil {
			return err
		}
		if !found {
			slog.DebugContext(ctx, "update skipped, product does not exist", slog.Int64("product_id", product.ID))
			return nil
		}

		now := tx.now()
		if err := tx.overwriteProduct(ctx, product, now); err != nil {
			return err
		}

		if !current.Price.Equal(product.Price) || current.StockQuantity != product.StockQuantity {
			entry := model.NewUpdateHistory(product.ID, current.Price, product.Price, current.StockQuantity, product.StockQuantity)
			entry.ActionDate = now
			if err := tx.insertHistory(ctx, entry); err != nil {
				return err
			}
		}
		modifiedDate = &now
		return nil
	})
	if err != nil {
		return err
	}

	if modifiedDate != nil {
		product.ModifiedDate = modifiedDate
	}
	return nil
}

// Delete records the final price and stock of a product and removes it.
// Deleting a product that does not exist does nothing.
func (s *Store) Delete(ctx context.Context, productID int64) error {
	return s.withinTransaction(ctx, "delete product", func(tx *Store) error {
		current, found, err := tx.lockProduct(ctx, "delete product", productID)
		if err != nil {
			return err
		}
		if !found {
			slog.DebugContext(ctx, "delete skipped, product does not exist", slog.Int64("product_id", productID))
			return nil
		}

		entry := model.NewDeleteHistory(productID, current.Price, current.StockQuantity)
		entry.ActionDate = tx.now()
		if err := tx.insertHistory(ctx, entry); err != nil {
			return err
		}

		stmt, err := tx.getExecutor().PreparexContext(ctx, `DELETE FROM products WHERE product_id = $1`)
		if err != nil {
			return persistenceError(ctx, "delete product", fmt.Errorf("failed to prepare delete statement: %w", err), slog.Int64("product_id", productID))
		}
		defer stmt.Close()

		if _, err := stmt.ExecContext(ctx, productID); err != nil {
			return persistenceError(ctx, "delete product", fmt.Errorf("failed to delete product: %w", err), slog.Int64("product_id", productID))
		}
		return nil
	})
}

// UpdateStock sets the stock quantity of an existing product through Update, so the change is audited.
func (s *Store) UpdateStock(ctx context.Context, productID int64, newQuantity int) error {
	if err := validation.StockQuantity(newQuantity); err != nil {
		return err
	}
	return s.withinTransaction(ctx, "update product stock", func(tx *Store) error {
		product, err := tx.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		product.StockQuantity = newQuantity
		return tx.Update(ctx, product)
	})
}

// lockProduct reads the audited columns of a product and holds its row lock until the transaction ends.
func (s *Store) lockProduct(ctx context.Context, op string, productID int64) (lockedProduct, bool, error) {
	query := `SELECT price, stock_quantity FROM products WHERE product_id = $1 FOR UPDATE`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return lockedProduct{}, false, persistenceError(ctx, op, fmt.Errorf("failed to prepare select statement: %w", err), slog.Int64("product_id", productID))
	}
	defer stmt.Close()

	var current lockedProduct
	if err := stmt.GetContext(ctx, &current, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lockedProduct{}, false, nil
		}
		return lockedProduct{}, false, persistenceError(ctx, op, fmt.Errorf("failed to lock product: %w", err), slog.Int64("product_id", productID))
	}
	return current, true, nil
}

func (s *Store) overwriteProduct(ctx context.Context, product *model.Product, modifiedDate time.Time) error {
	query := `UPDATE products SET name = $1, description = $2, price = $3, stock_quantity = $4,
	          category_id = $5, supplier_id = $6, sku = $7, weight = $8, dimensions = $9,
	          is_discontinued = $10, reorder_level = $11, modified_date = $12
	          WHERE product_id = $13`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return persistenceError(ctx, "update product", fmt.Errorf("failed to prepare update statement: %w", err), slog.Int64("product_id", product.ID))
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		product.Name, product.Description, product.Price, product.StockQuantity,
		product.CategoryID, product.SupplierID, product.SKU, product.Weight, product.Dimensions,
		product.IsDiscontinued, product.ReorderLevel, modifiedDate, product.ID,
	)
	if err != nil {
		return persistenceError(ctx, "update product", fmt.Errorf("failed to update product: %w", err), slog.Int64("product_id", product.ID))
	}
	return nil
}

func (s *Store) insertHistory(ctx context.Context, entry *model.ProductHistory) error {
	entry.ModifiedBy = s.modifiedBy

	query := `INSERT INTO product_history (product_id, action, old_price, new_price, old_stock, new_stock, action_date, modified_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING history_id`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return persistenceError(ctx, "record history", fmt.Errorf("failed to prepare insert statement: %w", err), slog.Int64("product_id", entry.ProductID))
	}
	defer stmt.Close()

	err = stmt.QueryRowxContext(ctx,
		entry.ProductID, string(entry.Action), entry.OldPrice, entry.NewPrice,
		entry.OldStock, entry.NewStock, entry.ActionDate, entry.ModifiedBy,
	).Scan(&entry.ID)
	if err != nil {
		return persistenceError(ctx, "record history", fmt.Errorf("failed to insert history: %w", err),
			slog.Int64("product_id", entry.ProductID), slog.String("action", string(entry.Action)))
	}
	return nil
}
