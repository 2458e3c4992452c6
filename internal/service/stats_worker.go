package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iyhunko/product-catalog/internal/metrics"
	"github.com/iyhunko/product-catalog/internal/model"
)

// StatsRefresher recomputes the statistics snapshot.
type StatsRefresher interface {
	Refresh(ctx context.Context, at time.Time) (*model.ProductStats, error)
}

// StatsWorker periodically recomputes the product statistics snapshot
// and mirrors it into gauges.
type StatsWorker struct {
	refresher StatsRefresher
	interval  time.Duration
	now       func() time.Time
	stopChan  chan struct{}
}

// NewStatsWorker creates a new StatsWorker
func NewStatsWorker(refresher StatsRefresher, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		refresher: refresher,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
		stopChan:  make(chan struct{}),
	}
}

// Start refreshes the snapshot immediately and then on every tick until stopped.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Stats worker started", slog.Duration("interval", w.interval))
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stats worker stopped by context")
			return
		case <-w.stopChan:
			slog.Info("Stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// Stop stops the stats worker
func (w *StatsWorker) Stop() {
	close(w.stopChan)
}

func (w *StatsWorker) refresh(ctx context.Context) {
	if _, err := w.RefreshOnce(ctx); err != nil {
		slog.Error("Failed to refresh product stats", slog.Any("err", err))
	}
}

// RefreshOnce recomputes the snapshot and updates the gauges.
func (w *StatsWorker) RefreshOnce(ctx context.Context) (*model.ProductStats, error) {
	stats, err := w.refresher.Refresh(ctx, w.now())
	if err != nil {
		return nil, err
	}

	metrics.StatsTotalProducts.Set(float64(stats.TotalProducts))
	metrics.StatsAveragePrice.Set(stats.AveragePrice.InexactFloat64())
	metrics.StatsTotalStockValue.Set(stats.TotalStockValue.InexactFloat64())
	metrics.StatsLowStock.Set(float64(stats.LowStockCount))
	metrics.StatsDiscontinued.Set(float64(stats.DiscontinuedCount))
	metrics.StatsLastUpdated.Set(float64(stats.LastUpdated.Unix()))

	slog.Debug("Product stats refreshed",
		slog.Int("total_products", stats.TotalProducts),
		slog.Int("low_stock", stats.LowStockCount))
	return stats, nil
}
