package sql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/jmoiron/sqlx"
)

// DefaultFeedLimit is the batch size used when ListPending is called without a limit.
const DefaultFeedLimit = 100

// HistoryFeedRepository works product history as an outbox: every entry is pending
// until it is marked relayed.
type HistoryFeedRepository struct {
	db *sqlx.DB
}

// NewHistoryFeedRepository creates a new HistoryFeedRepository instance.
func NewHistoryFeedRepository(db *sqlx.DB) *HistoryFeedRepository {
	return &HistoryFeedRepository{db: db}
}

// ListPending returns up to limit entries that have not been relayed yet, oldest first.
// An entry committed late with a lower id than already relayed ones is still returned.
func (r *HistoryFeedRepository) ListPending(ctx context.Context, limit int) ([]*model.ProductHistory, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	query := `SELECT ` + historyColumns + ` FROM product_history
	          WHERE relayed_at IS NULL
	          ORDER BY history_id ASC
	          LIMIT $1`

	stmt, err := r.db.PreparexContext(ctx, query)
	if err != nil {
		return nil, persistenceError(ctx, "list pending history", fmt.Errorf("failed to prepare select statement: %w", err))
	}
	defer stmt.Close()

	var rows []historyRow
	if err := stmt.SelectContext(ctx, &rows, limit); err != nil {
		return nil, persistenceError(ctx, "list pending history", fmt.Errorf("failed to query history: %w", err), slog.Int("limit", limit))
	}

	entries := make([]*model.ProductHistory, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toModel())
	}
	return entries, nil
}

// MarkRelayed records that the entry was published so it is not listed again.
func (r *HistoryFeedRepository) MarkRelayed(ctx context.Context, historyID int64, at time.Time) error {
	query := `UPDATE product_history SET relayed_at = $1 WHERE history_id = $2 AND relayed_at IS NULL`

	stmt, err := r.db.PreparexContext(ctx, query)
	if err != nil {
		return persistenceError(ctx, "mark history relayed", fmt.Errorf("failed to prepare update statement: %w", err), slog.Int64("history_id", historyID))
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, at, historyID); err != nil {
		return persistenceError(ctx, "mark history relayed", fmt.Errorf("failed to update history: %w", err), slog.Int64("history_id", historyID))
	}
	return nil
}
