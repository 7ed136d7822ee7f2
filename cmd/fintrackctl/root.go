package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	flagBackend string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "fintrackctl",
	Short:         "Operator tools for fintrack",
	Long:          "Run database migrations, import legacy data and print ledger summaries.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Override DATA_BACKEND (sqlite, postgres, firestore)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the shared configuration and applies the global flags.
// Only the backend settings are checked: the ctl never signs tokens.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI)
	return cfg, logger, nil
}

// openBackend opens the configured store without a read cache. The memory
// backend is refused since nothing outlives the command.
func openBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if bc.Type == backend.MemoryBackend {
		return nil, fmt.Errorf("backend %q keeps nothing between runs; choose one of sqlite, postgres, firestore", bc.Type)
	}
	bc.Cache = backend.NoCache
	return backend.NewFactory(logger).CreateBackend(ctx, bc)
}
