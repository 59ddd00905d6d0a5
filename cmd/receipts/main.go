// Command receipts consumes parking events and appends one receipt line per
// event to a log file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iliyamo/parking-lot-reservation/internal/config"
	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
)

func main() {
	cfg := config.LoadReceiptsConfig()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.AMQPURL == "" {
		logging.Fatal().Msg("RABBITMQ_URL is not set")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		logging.Fatal().Err(err).Msg("create log directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: cfg.AMQPURL, Log: queue.ReceiptLog{Path: cfg.LogFile}}
	logging.Info().Str("queue", queue.QueueName).Str("file", cfg.LogFile).Msg("receipts consumer started")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("receipts consumer")
	}
	logging.Info().Msg("receipts consumer stopped")
}
