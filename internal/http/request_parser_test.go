package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func decodeBody(t *testing.T, body string, dst any) error {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return decodeJSON(httptest.NewRecorder(), r, dst)
}

func TestDecodeJSON(t *testing.T) {
	var req transactionRequest
	if err := decodeBody(t, `{"type":"income","amount":"1.005","extra":true}`, &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Amount == nil || req.Amount.Cents != 101 {
		t.Fatalf("expected half-up rounding to 101 cents, got %+v", req.Amount)
	}

	err := decodeBody(t, "", &req)
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("empty body: %v", err)
	}

	err = decodeBody(t, `{"amount":"-3"}`, &req)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "amount" {
		t.Fatalf("negative amount should be a validation error, got %v", err)
	}

	err = decodeBody(t, `{"name":"`+strings.Repeat("x", maxBodyBytes)+`"}`, &profileRequest{})
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("oversized body: %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Fatalf("got %q", got)
	}
}

func TestTransactionRequest(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	amount := core.Money{Cents: 500}

	tx, err := transactionRequest{Type: "Expense", Amount: &amount, Date: "2024-02-29", CategoryID: " food "}.transaction(loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.Date.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, loc)) {
		t.Fatalf("date-only input must be local midnight, got %v", tx.Date)
	}
	if exp, ok := tx.Entry.(core.Expense); !ok || exp.Category.ID != "food" {
		t.Fatalf("unexpected entry %#v", tx.Entry)
	}

	tx, err = transactionRequest{Type: "goals", Amount: &amount, Date: "2024-02-29T10:00:00Z", GoalID: "g1"}.transaction(loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref, ok := tx.GoalRef(); !ok || ref.ID != "g1" {
		t.Fatalf("expected goal contribution, got %#v", tx.Entry)
	}

	tests := []struct {
		name  string
		req   transactionRequest
		field string
	}{
		{"no type", transactionRequest{Date: "2024-01-01"}, "type"},
		{"bad type", transactionRequest{Type: "transfer", Date: "2024-01-01"}, "type"},
		{"no date", transactionRequest{Type: "income"}, "date"},
		{"bad date", transactionRequest{Type: "income", Date: "2024-13-01"}, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.transaction(loc)
			var verr *core.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
		})
	}
}

func TestTransactionPatch(t *testing.T) {
	notes := "  rent  "
	p, err := transactionRequest{Notes: &notes, Date: "2024-03-01"}.patch(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Entry != nil || p.Amount != nil || *p.Notes != "rent" || p.Date == nil {
		t.Fatalf("unexpected patch %+v", p)
	}

	if _, err := (transactionRequest{CategoryID: "food"}).patch(time.UTC); err == nil {
		t.Fatal("changing the category needs a type")
	}
}

func TestGoalRequest(t *testing.T) {
	target := core.Money{Cents: 10000}
	legacy := "Trip"

	g, err := goalRequest{Name: &legacy, TargetAmount: &target, TargetDate: "2025-06-01"}.goal(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Title != "Trip" || g.CurrentAmount.Cents != 0 {
		t.Fatalf("unexpected goal %+v", g)
	}

	title := "Car"
	p, err := goalRequest{Title: &title, Name: &legacy}.patch(time.UTC)
	if err != nil || p.Title == nil || *p.Title != "Car" || p.TargetDate != nil {
		t.Fatalf("title should win over name: %+v %v", p, err)
	}

	if _, err := (goalRequest{Title: &title}).goal(time.UTC); err == nil {
		t.Fatal("a goal needs a target date")
	}
}
