package firestore

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDecodeTransactionLegacyFields(t *testing.T) {
	created := time.Date(2024, time.February, 3, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		data     map[string]any
		wantKind core.Kind
		wantDay  string
		cents    int64
	}{
		{
			name: "timestamp date and float amount",
			data: map[string]any{
				"userId": "u1", "type": "expense", "amount": 12.5,
				"date": time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local), "categoryId": "food",
			},
			wantKind: core.KindExpense,
			wantDay:  "2024-03-01",
			cents:    1250,
		},
		{
			name: "string date and integer amount",
			data: map[string]any{
				"userId": "u1", "type": "income", "amount": int64(300), "date": "2024-04-10", "categoryId": "salary",
			},
			wantKind: core.KindIncome,
			wantDay:  "2024-04-10",
			cents:    30000,
		},
		{
			name: "missing date falls back to createdAt",
			data: map[string]any{
				"userId": "u1", "type": "goals", "amount": "40", "createdAt": created, "goalId": "g1",
			},
			wantKind: core.KindGoal,
			wantDay:  created.In(time.Local).Format(core.DayLayout),
			cents:    4000,
		},
		{
			name: "targetDate used as a last resort",
			data: map[string]any{
				"userId": "u1", "type": "goal", "amount": 1.0, "targetDate": "2024-12-31", "goalId": "g1",
			},
			wantKind: core.KindGoal,
			wantDay:  "2024-12-31",
			cents:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeTransaction("doc1", tt.data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.ID != "doc1" || got.UserID != "u1" {
				t.Fatalf("unexpected identity: %+v", got)
			}
			if got.Kind() != tt.wantKind {
				t.Fatalf("kind = %q, want %q", got.Kind(), tt.wantKind)
			}
			if day := got.Date.In(time.Local).Format(core.DayLayout); day != tt.wantDay {
				t.Fatalf("day = %s, want %s", day, tt.wantDay)
			}
			if got.Amount.Cents != tt.cents {
				t.Fatalf("cents = %d, want %d", got.Amount.Cents, tt.cents)
			}
		})
	}
}

func TestDecodeTransactionRejectsUnknownType(t *testing.T) {
	if _, err := decodeTransaction("x", map[string]any{"type": "refund"}); err == nil {
		t.Fatal("expected an error for an unknown type")
	}
}

func TestDecodeTransactionsSkipsBadDocuments(t *testing.T) {
	docs := []rawDoc{
		{id: "ok", data: map[string]any{"type": "income", "categoryId": "salary", "amount": 10.5}},
		{id: "untyped", data: map[string]any{"amount": 3.0}},
		{id: "refund", data: map[string]any{"type": "refund", "amount": 2.0}},
		{id: "later", data: map[string]any{"type": "expense", "categoryId": "food", "amount": 4.0}},
	}
	var skipped []string
	got := decodeTransactions(docs, func(id string, err error) {
		if err == nil {
			t.Errorf("skip called without an error for %s", id)
		}
		skipped = append(skipped, id)
	})

	if len(got) != 2 || got[0].ID != "ok" || got[1].ID != "later" {
		t.Fatalf("decoded %+v, want ok and later", got)
	}
	if len(skipped) != 2 || skipped[0] != "untyped" || skipped[1] != "refund" {
		t.Fatalf("skipped %v, want [untyped refund]", skipped)
	}
}

func TestDecodeGoalLegacyFields(t *testing.T) {
	g := decodeGoal("g1", map[string]any{
		"userId":       "u1",
		"name":         "Holiday",
		"targetAmount": int64(1000),
		"date":         "2025-08-01",
		"dateCreated":  "2025-01-01T09:00:00Z",
	})
	if g.Title != "Holiday" {
		t.Fatalf("expected legacy name as title, got %q", g.Title)
	}
	if g.CurrentAmount.Cents != 0 {
		t.Fatalf("expected missing currentAmount to read as zero, got %d", g.CurrentAmount.Cents)
	}
	if g.TargetDate.Format(core.DayLayout) != "2025-08-01" {
		t.Fatalf("unexpected target date %v", g.TargetDate)
	}
	if g.CreatedAt.IsZero() {
		t.Fatal("expected dateCreated to fill CreatedAt")
	}

	unnamed := decodeGoal("g2", map[string]any{"userId": "u1"})
	if unnamed.Title != "Unnamed Goal" {
		t.Fatalf("expected fallback title, got %q", unnamed.Title)
	}
}

func TestEncodeTransactionKeepsFlatShape(t *testing.T) {
	tx := core.Transaction{
		UserID: "u1",
		Amount: core.Money{Cents: 1999},
		Date:   time.Date(2025, time.January, 2, 0, 0, 0, 0, time.Local),
		Entry:  core.GoalContribution{Goal: core.GoalRef{ID: "g1", Name: "Bike"}},
	}
	doc := encodeTransaction(tx)
	if doc["type"] != "goals" || doc["goalId"] != "g1" || doc["categoryId"] != "" {
		t.Fatalf("unexpected document: %v", doc)
	}
	if doc["amount"] != 19.99 {
		t.Fatalf("expected amount in currency units, got %v", doc["amount"])
	}

	back, err := decodeTransaction("id", doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Amount.Cents != 1999 {
		t.Fatalf("expected cents to survive, got %d", back.Amount.Cents)
	}
}
