package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iyhunko/product-catalog/internal/config"
	"github.com/iyhunko/product-catalog/internal/logger"
	"github.com/iyhunko/product-catalog/internal/metrics"
	sqspkg "github.com/iyhunko/product-catalog/internal/sqs"
)

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)

	if !conf.AWS.Enabled() {
		handleErr("checking config", errors.New(config.SQSQueueURLEnv+" is required"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("creating SQS client", err)

	consumer := sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL, handleAuditMessage)

	metrics.StartMetricsServer(ctx, conf.MetricsServer.Port)

	// Start consuming messages
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Consumer error", slog.Any("err", err))
		}
	}()

	slog.Info("Audit listener started. Listening for messages...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")
	cancel()
}

func handleAuditMessage(_ context.Context, msg sqspkg.AuditMessage) error {
	attrs := []any{
		slog.String("event_id", msg.EventID),
		slog.Int64("history_id", msg.HistoryID),
		slog.Int64("product_id", msg.ProductID),
		slog.String("action", msg.Action),
		slog.String("modified_by", msg.ModifiedBy),
		slog.Time("action_date", msg.ActionDate),
	}
	if msg.OldPrice != nil {
		attrs = append(attrs, slog.String("old_price", msg.OldPrice.StringFixed(2)))
	}
	if msg.NewPrice != nil {
		attrs = append(attrs, slog.String("new_price", msg.NewPrice.StringFixed(2)))
	}
	if msg.OldStock != nil {
		attrs = append(attrs, slog.Int("old_stock", *msg.OldStock))
	}
	if msg.NewStock != nil {
		attrs = append(attrs, slog.Int("new_stock", *msg.NewStock))
	}
	slog.Info("Product change received", attrs...)

	metrics.AuditMessagesReceived.WithLabelValues(msg.Action).Inc()
	return nil
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
