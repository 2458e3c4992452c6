package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/validation"
	"github.com/shopspring/decimal"
)

const productSelect = `SELECT p.product_id, p.name, p.description, p.price, p.stock_quantity,
	p.category_id, p.supplier_id, p.sku, p.weight, p.dimensions, p.is_discontinued,
	p.reorder_level, p.created_date, p.modified_date,
	c.name AS category_name, c.description AS category_description,
	c.parent_category_id AS category_parent_id, c.created_date AS category_created_date,
	s.name AS supplier_name, s.contact_name AS supplier_contact_name, s.email AS supplier_email,
	s.phone AS supplier_phone, s.address AS supplier_address, s.country AS supplier_country,
	s.is_active AS supplier_is_active, s.created_date AS supplier_created_date
	FROM products p
	LEFT JOIN categories c ON c.category_id = p.category_id
	LEFT JOIN suppliers s ON s.supplier_id = p.supplier_id
	WHERE 1=1`

const historyColumns = `history_id, product_id, action, old_price, new_price, old_stock, new_stock, action_date, modified_by`

var queryFields = map[repository.QueryField]bool{
	repository.IDField:       true,
	repository.NameField:     true,
	repository.PriceField:    true,
	repository.StockField:    true,
	repository.CategoryField: true,
	repository.SupplierField: true,
}

var queryOperators = map[repository.Operator]bool{
	repository.Equal:          true,
	repository.GreaterOrEqual: true,
	repository.LessOrEqual:    true,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildProductQuery renders q as a parameterized select over the joined product view.
func buildProductQuery(q repository.Query) (string, []any, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(productSelect)

	var args []any
	argIndex := 1

	for _, cond := range q.Conditions {
		if !queryFields[cond.Field] {
			return "", nil, fmt.Errorf("unsupported query field %q", cond.Field)
		}
		if !queryOperators[cond.Op] {
			return "", nil, fmt.Errorf("unsupported query operator %q", cond.Op)
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND p.%s %s $%d", cond.Field, cond.Op, argIndex))
		args = append(args, cond.Value)
		argIndex++
	}

	if q.SearchTerm != nil && *q.SearchTerm != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d OR p.sku ILIKE $%[1]d)", argIndex))
		args = append(args, "%"+likeEscaper.Replace(*q.SearchTerm)+"%")
		argIndex++
	}

	if q.LowStockOnly {
		queryBuilder.WriteString(" AND p.stock_quantity <= p.reorder_level AND NOT p.is_discontinued")
	}

	queryBuilder.WriteString(" ORDER BY ")
	for _, o := range q.Ordering {
		if !queryFields[o.Field] {
			return "", nil, fmt.Errorf("unsupported ordering field %q", o.Field)
		}
		queryBuilder.WriteString(fmt.Sprintf("p.%s ASC, ", o.Field))
	}
	// product id keeps the order stable among equal keys
	queryBuilder.WriteString("p.product_id ASC")

	return queryBuilder.String(), args, nil
}

func (s *Store) listProducts(ctx context.Context, op string, q repository.Query, attrs ...slog.Attr) ([]*model.Product, error) {
	query, args, err := buildProductQuery(q)
	if err != nil {
		return nil, err
	}

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return nil, persistenceError(ctx, op, fmt.Errorf("failed to prepare select statement: %w", err), attrs...)
	}
	defer stmt.Close()

	var rows []productRow
	if err := stmt.SelectContext(ctx, &rows, args...); err != nil {
		return nil, persistenceError(ctx, op, fmt.Errorf("failed to query products: %w", err), attrs...)
	}

	products := make([]*model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, nil
}

// ListAll returns every product ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]*model.Product, error) {
	return s.listProducts(ctx, "list products", *repository.NewQuery())
}

// GetByID returns the product with its category and supplier, or repository.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	products, err := s.listProducts(ctx, "get product",
		*repository.NewQuery().With(repository.IDField, id), slog.Int64("product_id", id))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}
	return products[0], nil
}

func (s *Store) ListByCategory(ctx context.Context, categoryID int64) ([]*model.Product, error) {
	q := repository.NewQuery().With(repository.CategoryField, categoryID).OrderBy(repository.NameField)
	return s.listProducts(ctx, "list products by category", *q, slog.Int64("category_id", categoryID))
}

func (s *Store) ListBySupplier(ctx context.Context, supplierID int64) ([]*model.Product, error) {
	q := repository.NewQuery().With(repository.SupplierField, supplierID).OrderBy(repository.NameField)
	return s.listProducts(ctx, "list products by supplier", *q, slog.Int64("supplier_id", supplierID))
}

// ListLowStock returns active products at or below their reorder level, lowest stock first.
func (s *Store) ListLowStock(ctx context.Context) ([]*model.Product, error) {
	q := repository.NewQuery().LowStock().OrderBy(repository.StockField)
	return s.listProducts(ctx, "list low stock products", *q)
}

// Search matches term case-insensitively against name, description and SKU.
// Wildcard characters in term are matched literally.
func (s *Store) Search(ctx context.Context, term string) ([]*model.Product, error) {
	q := repository.NewQuery().Matching(term).OrderBy(repository.NameField)
	return s.listProducts(ctx, "search products", *q, slog.String("term", term))
}

// ListByPriceRange returns products priced within [minPrice, maxPrice], cheapest first.
func (s *Store) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.Product, error) {
	if err := validation.PriceRange(minPrice, maxPrice); err != nil {
		return nil, err
	}
	q := repository.NewQuery().
		Where(repository.PriceField, repository.GreaterOrEqual, minPrice).
		Where(repository.PriceField, repository.LessOrEqual, maxPrice).
		OrderBy(repository.PriceField)
	return s.listProducts(ctx, "list products by price range", *q,
		slog.String("min_price", minPrice.String()), slog.String("max_price", maxPrice.String()))
}

// GetHistory returns the audit trail of a product, newest first. The product may no longer exist.
func (s *Store) GetHistory(ctx context.Context, productID int64) ([]*model.ProductHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM product_history
	          WHERE product_id = $1
	          ORDER BY action_date DESC, history_id DESC`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return nil, persistenceError(ctx, "get product history", fmt.Errorf("failed to prepare select statement: %w", err), slog.Int64("product_id", productID))
	}
	defer stmt.Close()

	var rows []historyRow
	if err := stmt.SelectContext(ctx, &rows, productID); err != nil {
		return nil, persistenceError(ctx, "get product history", fmt.Errorf("failed to query history: %w", err), slog.Int64("product_id", productID))
	}

	history := make([]*model.ProductHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, row.toModel())
	}
	return history, nil
}

// GetCategoryHierarchy returns root categories by name, each with its direct subcategories.
func (s *Store) GetCategoryHierarchy(ctx context.Context) ([]*model.Category, error) {
	query := `SELECT category_id, name, description, parent_category_id, created_date
	          FROM categories
	          WHERE parent_category_id IS NULL
	             OR parent_category_id IN (SELECT category_id FROM categories WHERE parent_category_id IS NULL)
	          ORDER BY name ASC, category_id ASC`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return nil, persistenceError(ctx, "get category hierarchy", fmt.Errorf("failed to prepare select statement: %w", err))
	}
	defer stmt.Close()

	var rows []categoryRow
	if err := stmt.SelectContext(ctx, &rows); err != nil {
		return nil, persistenceError(ctx, "get category hierarchy", fmt.Errorf("failed to query categories: %w", err))
	}

	return buildHierarchy(rows), nil
}

// buildHierarchy attaches children to their root. rows must be sorted by name.
func buildHierarchy(rows []categoryRow) []*model.Category {
	categories := make([]*model.Category, 0, len(rows))
	roots := make([]*model.Category, 0)
	byID := make(map[int64]*model.Category, len(rows))
	for _, row := range rows {
		category := row.toModel()
		categories = append(categories, category)
		if category.IsRoot() {
			roots = append(roots, category)
			byID[category.ID] = category
		}
	}
	for _, category := range categories {
		if category.IsRoot() {
			continue
		}
		if parent, ok := byID[*category.ParentCategoryID]; ok {
			parent.SubCategories = append(parent.SubCategories, category)
		}
	}
	return roots
}

// GetStats returns the latest statistics snapshot, or repository.ErrNotFound if none was computed.
func (s *Store) GetStats(ctx context.Context) (*model.ProductStats, error) {
	query := `SELECT ` + statsColumns + ` FROM product_stats ORDER BY stat_id LIMIT 1`

	stmt, err := s.getExecutor().PreparexContext(ctx, query)
	if err != nil {
		return nil, persistenceError(ctx, "get stats", fmt.Errorf("failed to prepare select statement: %w", err))
	}
	defer stmt.Close()

	var row statsRow
	if err := stmt.GetContext(ctx, &row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product stats: %w", repository.ErrNotFound)
		}
		return nil, persistenceError(ctx, "get stats", fmt.Errorf("failed to query stats: %w", err))
	}
	return row.toModel(), nil
}
