package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/legacy"
)

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy <db.json>",
	Short: "Import users, transactions and goals from a legacy db.json file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportLegacy,
}

func init() {
	rootCmd.AddCommand(importLegacyCmd)
}

func runImportLegacy(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	be, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	rep, err := legacy.NewImporter(be.Store, be.Store, logger).Import(cmd.Context(), f)
	printImportReport(cmd.OutOrStdout(), rep)
	return err
}

func printImportReport(w io.Writer, rep legacy.Report) {
	fmt.Fprintf(w, "Users created:    %d\n", rep.Users)
	fmt.Fprintf(w, "Users reused:     %d\n", rep.ExistingUsers)
	fmt.Fprintf(w, "Goals:            %d\n", rep.Goals)
	fmt.Fprintf(w, "Transactions:     %d\n", rep.Transactions)
	if rep.Skipped > 0 {
		fmt.Fprintf(w, "Skipped records:  %d (see log)\n", rep.Skipped)
	}
}
