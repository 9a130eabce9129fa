// Package cli holds the start-up steps shared by cmd/planner and
// cmd/recurring-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetplanner/internal/amqp"
	"budgetplanner/internal/config"
	applog "budgetplanner/internal/log"
	"budgetplanner/internal/storage"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger for component at level and makes
// it the slog default.
func SetupLogger(component, level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the database and applies migrations, exiting on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return repo
}

// InitAMQP connects to the broker when one is configured. It returns nil
// when AMQP is disabled or unreachable; the planner then runs without
// state.saved events.
func InitAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled, state saved events are not published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// then runs with a context bounded by timeout, and done is closed when it
// returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
