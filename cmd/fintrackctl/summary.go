package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

var (
	flagEmail  string
	flagRange  string
	flagScope  string
	flagAnchor string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard and calendar of one user",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&flagEmail, "email", "", "Email of the user to summarize")
	summaryCmd.Flags().StringVar(&flagRange, "range", "month", "Dashboard window: week, month, year or all")
	summaryCmd.Flags().StringVar(&flagScope, "scope", "month", "Calendar scope: week, month or year")
	summaryCmd.Flags().StringVar(&flagAnchor, "anchor", "", "Calendar anchor day (YYYY-MM-DD), today by default")
	_ = summaryCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(summaryCmd)
}

type summaryOptions struct {
	Email  string
	Window insights.Window
	Scope  insights.Scope
	Anchor time.Time
	Now    time.Time
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	loc := cfg.Location()
	now := time.Now().In(loc)

	scope, err := insights.ParseScope(flagScope)
	if err != nil {
		return err
	}
	anchor := now
	if flagAnchor != "" {
		if anchor, err = core.ParseDay(flagAnchor, loc); err != nil {
			return fmt.Errorf("--anchor: %w", err)
		}
	}

	be, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	return writeSummary(cmd.Context(), cmd.OutOrStdout(), be.Store, summaryOptions{
		Email:  flagEmail,
		Window: insights.ParseWindow(flagRange),
		Scope:  scope,
		Anchor: anchor,
		Now:    now,
	})
}

func writeSummary(ctx context.Context, w io.Writer, st store.Store, opts summaryOptions) error {
	user, err := st.GetUserByEmail(ctx, opts.Email)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", opts.Email, err)
	}
	txs, err := st.ListTransactions(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	goals, err := st.ListGoals(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}

	loc := opts.Now.Location()
	dash := insights.BuildDashboard(txs, goals, opts.Window, opts.Now)
	cal := insights.SummarizeCalendar(insights.BucketByDay(loc, txs, goals), opts.Scope, opts.Anchor)

	name := user.Name
	if name == "" {
		name = user.Email
	}
	return report.Dashboard(w, name, dash, cal)
}
