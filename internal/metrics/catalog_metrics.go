package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction outcomes recorded by TransactionsTotal.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

var (
	// ProductsInserted is a Prometheus counter for tracking the total number of products inserted.
	ProductsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_inserted_total",
		Help: "The total number of products inserted",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of product updates.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_updated_total",
		Help: "The total number of product updates, stock updates included",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_deleted_total",
		Help: "The total number of products deleted",
	})

	// ValidationFailures counts writes rejected before reaching the store.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_validation_failures_total",
		Help: "The total number of catalog operations rejected by validation",
	}, []string{"operation"})

	// TransactionsTotal counts multi-operation transactions by outcome.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_transactions_total",
		Help: "The total number of catalog transactions by outcome",
	}, []string{"outcome"})

	// AuditMessagesPublished counts history entries relayed to the audit queue.
	AuditMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_audit_messages_published_total",
		Help: "The total number of audit messages published",
	}, []string{"action"})

	// AuditMessagesReceived counts audit messages handled by the listener.
	AuditMessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_audit_messages_received_total",
		Help: "The total number of audit messages received",
	}, []string{"action"})
)

// Snapshot gauges mirror the latest product statistics row.
var (
	StatsTotalProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stats_products",
		Help: "Number of products in the latest statistics snapshot",
	})

	StatsAveragePrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stats_average_price",
		Help: "Average product price in the latest statistics snapshot",
	})

	StatsTotalStockValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stats_stock_value",
		Help: "Sum of price times stock in the latest statistics snapshot",
	})

	StatsLowStock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stats_low_stock_products",
		Help: "Number of active products at or below their reorder level",
	})

	StatsDiscontinued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stats_discontinued_products",
		Help: "Number of discontinued products",
	})

	StatsLastUpdated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_stats_last_updated_timestamp_seconds",
		Help: "Unix time of the latest statistics snapshot",
	})
)
