package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/product-catalog/internal/metrics"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/sqs"
)

const defaultRelayBatchSize = 100

// HistoryFeed lists history entries that have not been relayed and marks them once published.
type HistoryFeed interface {
	ListPending(ctx context.Context, limit int) ([]*model.ProductHistory, error)
	MarkRelayed(ctx context.Context, historyID int64, at time.Time) error
}

// AuditPublisher sends audit messages to the queue.
type AuditPublisher interface {
	PublishAuditMessage(ctx context.Context, msg sqs.AuditMessage) error
}

// AuditRelay forwards pending product history entries to SQS. Delivery is at least once:
// an entry is marked relayed only after it was published.
type AuditRelay struct {
	feed      HistoryFeed
	publisher AuditPublisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewAuditRelay creates a new AuditRelay instance.
func NewAuditRelay(feed HistoryFeed, publisher AuditPublisher, interval time.Duration, batchSize int) *AuditRelay {
	if batchSize <= 0 {
		batchSize = defaultRelayBatchSize
	}
	return &AuditRelay{
		feed:      feed,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the relay loop.
func (r *AuditRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("Audit relay started", slog.Duration("interval", r.interval), slog.Int("batch_size", r.batchSize))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Audit relay stopping")
			return
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil {
				slog.Error("Failed to relay audit entries", slog.Any("err", err))
			}
		}
	}
}

// Drain relays batches until no pending entries remain or a batch fails, returning the number published.
func (r *AuditRelay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		published, err := r.relayBatch(ctx)
		total += published
		if err != nil || published < r.batchSize {
			return total, err
		}
	}
}

func (r *AuditRelay) relayBatch(ctx context.Context) (int, error) {
	entries, err := r.feed.ListPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending history: %w", err)
	}

	published := 0
	for _, entry := range entries {
		if err := r.publisher.PublishAuditMessage(ctx, sqs.NewAuditMessage(entry)); err != nil {
			slog.Error("Failed to publish audit message",
				slog.Int64("history_id", entry.ID),
				slog.Int64("product_id", entry.ProductID),
				slog.Any("err", err))
			return published, fmt.Errorf("failed to publish history entry %d: %w", entry.ID, err)
		}
		metrics.AuditMessagesPublished.WithLabelValues(string(entry.Action)).Inc()

		if err := r.feed.MarkRelayed(ctx, entry.ID, r.now()); err != nil {
			// the entry stays pending and is published again on the next run
			return published, fmt.Errorf("failed to mark history entry %d relayed: %w", entry.ID, err)
		}
		published++
	}

	if published > 0 {
		slog.Info("Audit entries relayed", slog.Int("count", published))
	}
	return published, nil
}
