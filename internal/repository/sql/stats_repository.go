package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/jmoiron/sqlx"
)

const statsColumns = `stat_id, total_products, average_price, total_stock_value, low_stock_count, discontinued_count, last_updated`

// snapshotStatID identifies the single statistics row.
const snapshotStatID = 1

// StatsRepository recomputes the product statistics snapshot.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Refresh aggregates the current product set into the snapshot row and returns it.
func (r *StatsRepository) Refresh(ctx context.Context, at time.Time) (*model.ProductStats, error) {
	query := `INSERT INTO product_stats (` + statsColumns + `)
	          SELECT $1,
	                 COUNT(*),
	                 COALESCE(ROUND(AVG(price), 2), 0),
	                 COALESCE(SUM(price * stock_quantity), 0),
	                 COUNT(*) FILTER (WHERE stock_quantity <= reorder_level AND NOT is_discontinued),
	                 COUNT(*) FILTER (WHERE is_discontinued),
	                 $2
	          FROM products
	          ON CONFLICT (stat_id) DO UPDATE SET
	                 total_products = EXCLUDED.total_products,
	                 average_price = EXCLUDED.average_price,
	                 total_stock_value = EXCLUDED.total_stock_value,
	                 low_stock_count = EXCLUDED.low_stock_count,
	                 discontinued_count = EXCLUDED.discontinued_count,
	                 last_updated = EXCLUDED.last_updated
	          RETURNING ` + statsColumns

	stmt, err := r.db.PreparexContext(ctx, query)
	if err != nil {
		return nil, persistenceError(ctx, "refresh stats", fmt.Errorf("failed to prepare upsert statement: %w", err))
	}
	defer stmt.Close()

	var row statsRow
	if err := stmt.GetContext(ctx, &row, snapshotStatID, at); err != nil {
		return nil, persistenceError(ctx, "refresh stats", fmt.Errorf("failed to refresh stats: %w", err))
	}
	return row.toModel(), nil
}
