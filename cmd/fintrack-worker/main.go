package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil, log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate, (*config.Config).ValidateSheets)
	logger = cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	if backendCfg.Type == backend.MemoryBackend {
		logger.Error("The worker needs a shared backend; memory only lives inside the API process")
		os.Exit(1)
	}
	// Events must see the latest write, so the worker reads uncached.
	backendCfg.Cache = backend.NoCache
	be, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer be.Cleanup()

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", log.FieldSheetsRef, cfg.GoogleSpreadsheetID)

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer broker.Close()

	// Password reset events have no mail transport wired yet and are dropped
	// with a warning by the worker.
	w := worker.NewSyncWorker(be.Store, mirror, nil, logger)

	err = broker.ConsumeEvents(ctx, cfg.WorkerPrefetch, w.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
