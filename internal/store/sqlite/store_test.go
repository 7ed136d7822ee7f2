package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var journalMode string
	if err := s.DB().QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", journalMode)
	}

	var foreignKeys int
	if err := s.DB().QueryRowContext(ctx, "PRAGMA foreign_keys;").Scan(&foreignKeys); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if foreignKeys != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", foreignKeys)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.Local)
	newer := time.Date(2025, time.May, 9, 0, 0, 0, 0, time.Local)

	inputs := []core.Transaction{
		{UserID: "u1", Amount: core.Money{Cents: 1250}, Date: older, Notes: "groceries",
			Entry: core.Expense{Category: core.CategoryRef{ID: "food", Name: "Food"}}},
		{UserID: "u1", Amount: core.Money{Cents: 5000}, Date: newer,
			Entry: core.GoalContribution{Goal: core.GoalRef{ID: "g1", Name: "Bike"}}},
		{UserID: "u2", Amount: core.Money{Cents: 100}, Date: newer,
			Entry: core.Income{Category: core.CategoryRef{ID: "salary", Name: "Salary"}}},
	}
	for _, in := range inputs {
		if _, err := s.CreateTransaction(ctx, in); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	got, err := s.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if !got[0].Date.Equal(newer) || !got[1].Date.Equal(older) {
		t.Fatalf("expected newest first, got %v then %v", got[0].Date, got[1].Date)
	}
	g, ok := got[0].GoalRef()
	if !ok || g.ID != "g1" || g.Name != "Bike" {
		t.Fatalf("expected goal contribution to survive round trip, got %+v", got[0].Entry)
	}
	if got[1].Notes != "groceries" || got[1].Kind() != core.KindExpense {
		t.Fatalf("unexpected expense row: %+v", got[1])
	}

	notes := "weekly groceries"
	updated, err := s.UpdateTransaction(ctx, "u1", got[1].ID, core.TransactionPatch{Notes: &notes})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Notes != notes || updated.Amount.Cents != 1250 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, err := s.UpdateTransaction(ctx, "u2", got[1].ID, core.TransactionPatch{Notes: &notes}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}

	if err := s.DeleteTransaction(ctx, "u1", got[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u1", got[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGoalUpdateKeepsAmountsAboveTarget(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, core.Goal{
		UserID:        "u1",
		Title:         "Laptop",
		TargetAmount:  core.Money{Cents: 20000},
		CurrentAmount: core.Money{Cents: 15000},
		TargetDate:    time.Date(2025, time.December, 1, 0, 0, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	next := core.Money{Cents: 25000}
	if _, err := s.UpdateGoal(ctx, "u1", g.ID, core.GoalPatch{CurrentAmount: &next}); err != nil {
		t.Fatalf("update goal: %v", err)
	}
	fetched, err := s.GetGoal(ctx, "u1", g.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if fetched.CurrentAmount.Cents != 25000 || fetched.Title != "Laptop" {
		t.Fatalf("unexpected goal: %+v", fetched)
	}
}

func TestUserEmailIsUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, core.User{Email: "Ada@example.com", Name: "Ada", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Email: "ada@example.com", Name: "Other", PasswordHash: "x"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	found, err := s.GetUserByEmail(ctx, "ADA@example.com")
	if err != nil || found.ID != u.ID {
		t.Fatalf("get by email: %+v, %v", found, err)
	}
	if _, err := s.GetUserByID(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
