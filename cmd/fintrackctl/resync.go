package main

import (
	"fmt"

	"github.com/spf13/cobra"

	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rewrite every transaction of a user to the spreadsheet mirror",
	RunE:  runResync,
}

func init() {
	resyncCmd.Flags().StringVar(&flagEmail, "email", "", "Email of the user to resync")
	_ = resyncCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(resyncCmd)
}

func runResync(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		return fmt.Errorf("sheets client: %w", err)
	}

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	user, err := be.Store.GetUserByEmail(ctx, flagEmail)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", flagEmail, err)
	}
	synced, err := worker.NewSyncWorker(be.Store, mirror, nil, logger).Resync(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d transactions for %s.\n", synced, user.Email)
	return nil
}
