package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-catalog/internal/config"
	httpAPI "github.com/iyhunko/product-catalog/internal/http"
	"github.com/iyhunko/product-catalog/internal/http/controller"
	"github.com/iyhunko/product-catalog/internal/logger"
	"github.com/iyhunko/product-catalog/internal/repository/sql"
	"github.com/iyhunko/product-catalog/internal/service"
	sqspkg "github.com/iyhunko/product-catalog/internal/sqs"
	"github.com/jmoiron/sqlx"
)

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	defer db.Close()

	storeOpts := []sql.Option{sql.WithModifiedBy(conf.Catalog.ModifiedBy)}

	if conf.Catalog.SeedExamples {
		seeded, err := sql.SeedExampleProducts(ctx, db, storeOpts...)
		handleErr("seeding example products", err)
		if seeded > 0 {
			slog.Info("Example products seeded", slog.Int("count", seeded))
		}
	}

	if err := logCatalogSummary(ctx, db, storeOpts...); err != nil {
		slog.Error("failed to summarize catalog", slog.Any("err", err))
	}

	// Recompute the statistics snapshot in the background
	statsWorker := service.NewStatsWorker(sql.NewStatsRepository(db), conf.Catalog.StatsInterval)
	go statsWorker.Start(ctx)

	// Relay audit history to SQS when a queue is configured
	if conf.AWS.Enabled() {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
		handleErr("creating SQS client", err)

		relay := service.NewAuditRelay(
			sql.NewHistoryFeedRepository(db),
			sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL),
			conf.AuditRelay.Interval,
			conf.AuditRelay.BatchSize,
		)
		go relay.Start(ctx)
	} else {
		slog.Info("SQS queue not configured, audit relay disabled")
	}

	// Start ops HTTP server
	router := httpAPI.InitRouter(gin.New(), controller.New(db))
	httpServer := httpAPI.NewServer(conf.HTTPServer.Port, router)
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")

	statsWorker.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down HTTP server", slog.Any("err", err))
	}
}

// logCatalogSummary reports the catalog size and products that need reordering.
// The store session is released before it returns.
func logCatalogSummary(ctx context.Context, db *sqlx.DB, opts ...sql.Option) error {
	return sql.WithStore(ctx, db, func(store *sql.Store) error {
		catalog := service.NewCatalogService(store)

		products, err := catalog.ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		lowStock, err := catalog.ListLowStock(ctx)
		if err != nil {
			return fmt.Errorf("failed to list low stock products: %w", err)
		}

		slog.Info("Catalog loaded", slog.Int("products", len(products)), slog.Int("low_stock", len(lowStock)))
		for _, p := range lowStock {
			slog.Warn("Product below reorder level",
				slog.Int64("product_id", p.ID),
				slog.String("name", p.Name),
				slog.Int("stock_quantity", p.StockQuantity),
				slog.Int("reorder_level", p.ReorderLevel))
		}
		return nil
	}, opts...)
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
