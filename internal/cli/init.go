// Package cli holds the start-up and shutdown steps shared by the binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. A nil cfg gives the default text logger.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the configuration and runs checks on it,
// (*config.Config).Validate when none are given. It exits the process on
// failure.
func LoadAndValidateConfig(logger *log.Logger, checks ...func(*config.Config) error) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	if len(checks) == 0 {
		checks = append(checks, (*config.Config).Validate)
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			logger.Error("Configuration validation failed",
				log.NewFields().WithError(err).WithErrorType(log.ErrorTypeConfiguration).ToSlice()...)
			os.Exit(1)
		}
	}
	return cfg
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM, after
// cleanup has run with a context bounded by timeout. done is closed once
// cleanup returned.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
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

// WaitForShutdown blocks until the shutdown started by GracefulShutdown
// has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
