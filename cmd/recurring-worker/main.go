package main

import (
	"context"
	"os"
	"time"

	"budgetplanner/internal/cli"
	applog "budgetplanner/internal/log"
	"budgetplanner/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRecurring, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting recurring-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The worker writes through the same optimistic version checks as the
	// server but never publishes, so its own writes do not come back.
	planner := services.NewPlannerService(repo, nil, nil)
	processor := services.NewRecurringProcessor(planner, repo, cfg.RecurringConcurrency)

	amqpClient := cli.InitAMQP(logger, cfg)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
	})

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"concurrency", cfg.RecurringConcurrency,
		"sqlite_db", cfg.SQLiteDBPath)
	go processor.Run(ctx, cfg.RecurringInterval)

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeStateSaved(ctx, processor.HandleStateSaved); err != nil && ctx.Err() == nil {
				logger.Error("State saved consumer stopped", "error", err)
			}
		}()
	}

	<-done
	logger.Info("Recurring-worker stopped")
}
