// Command cleanup removes queue entries that were delivered longer ago than
// the configured retention period. Undelivered entries are never removed.
// It is intended to be invoked by an external cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/wordqueue/internal/app"
	"github.com/heartmarshall/wordqueue/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open queue store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	threshold := time.Now().AddDate(0, 0, -cfg.Queue.DeliveredRetentionDays)

	deleted, err := store.Queue.DeleteDeliveredBefore(ctx, threshold)
	if err != nil {
		logger.Error("delete delivered entries failed",
			slog.String("error", err.Error()),
			slog.Time("threshold", threshold),
		)
		os.Exit(1)
	}

	logger.Info("cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Time("threshold", threshold),
	)
}
