package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"budgetplanner/internal/budget"
	"budgetplanner/internal/cache"
	"budgetplanner/internal/cli"
	apphttp "budgetplanner/internal/http"
	applog "budgetplanner/internal/log"
	"budgetplanner/internal/middleware/ratelimit"
	"budgetplanner/internal/services"
	"budgetplanner/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	// Money in API responses is emitted as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.StatePublisher
	if amqpClient := cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	reports := cache.NewLRU[services.ReportKey, budget.Report](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register("reports", reports)

	planner := services.NewPlannerService(repo, publisher, reports)
	auth := services.NewAuthService(repo, repo, cfg.SessionTTL, cfg.BcryptCost)

	var exporter *services.ReportExporter
	if cfg.SheetsEnabled() {
		sheetsClient, err := google.New(context.Background(), google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleReportSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = services.NewReportExporter(planner, repo, sheetsClient, repo)
		logger.Info("Report export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		Auth:              auth,
		Planner:           planner,
		Exporter:          exporter,
		LoginLimiter:      ratelimit.NewLimiter(ratelimit.Config{Requests: cfg.LoginRateLimit, Period: time.Minute}),
		Logger:            logger,
		SessionCookieName: cfg.SessionCookieName,
		Ready:             repo.Ping,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
	})

	caches.Start(ctx, time.Minute)
	go purgeSessions(ctx, logger, auth)

	logger.Info("Starting planner server", "port", cfg.Port, "amqp", cfg.AMQPEnabled(), "sheets", cfg.SheetsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

func purgeSessions(ctx context.Context, logger *applog.Logger, auth *services.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Failed to purge expired sessions", "error", err)
			}
		}
	}
}
