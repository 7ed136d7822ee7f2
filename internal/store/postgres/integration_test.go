//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Run with: FINTRACK_TEST_DATABASE_URL=postgres://... go test -tags=integration ./internal/store/postgres

func TestIntegration_PostgresLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("FINTRACK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINTRACK_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	userID := "it-" + uuid.NewString()
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)

	tx, err := s.CreateTransaction(ctx, core.Transaction{
		UserID: userID,
		Amount: core.Money{Cents: 4200},
		Date:   day,
		Entry:  core.Expense{Category: core.CategoryRef{ID: "rent", Name: "Rent"}},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	defer s.DeleteTransaction(ctx, userID, tx.ID)

	list, err := s.ListTransactions(ctx, userID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list transactions: %d rows, %v", len(list), err)
	}
	if !list[0].Date.Equal(day) {
		t.Fatalf("expected date %v, got %v", day, list[0].Date)
	}

	if _, err := s.GetGoal(ctx, userID, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
