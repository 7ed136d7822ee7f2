package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store, user string, cents int64) core.Transaction {
	t.Helper()
	tx, err := st.CreateTransaction(context.Background(), core.Transaction{
		UserID: user,
		Amount: core.Money{Cents: cents},
		Date:   time.Date(2024, time.May, 1, 0, 0, 0, 0, time.Local),
		Entry:  core.Expense{Category: core.CategoryRef{ID: "food", Name: "Food"}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tx
}

func TestHandleEventMirrorsTransactions(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(st, mirror, nil, log.Nop())

	tx := seed(t, st, "u1", 500)
	if err := w.HandleEvent(ctx, amqp.NewEvent(amqp.EventTransactionCreated, "u1", tx.ID)); err != nil {
		t.Fatalf("created: %v", err)
	}
	if _, ok := mirror.Row(tx.ID); !ok {
		t.Fatal("expected a mirrored row")
	}

	amount := core.Money{Cents: 900}
	if _, err := st.UpdateTransaction(ctx, "u1", tx.ID, core.TransactionPatch{Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.NewEvent(amqp.EventTransactionUpdated, "u1", tx.ID)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	row, _ := mirror.Row(tx.ID)
	if row[4] != 9.0 {
		t.Fatalf("expected updated amount, got %v", row[4])
	}

	if err := w.HandleEvent(ctx, amqp.NewEvent(amqp.EventTransactionDeleted, "u1", tx.ID)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if mirror.Len() != 0 {
		t.Fatal("expected the row to be removed")
	}
}

func TestHandleEventIgnoresMissingAndGoalEvents(t *testing.T) {
	ctx := context.Background()
	mirror := sheetsmem.New()
	w := NewSyncWorker(memory.New(), mirror, nil, log.Nop())

	for _, ev := range []amqp.Event{
		amqp.NewEvent(amqp.EventTransactionCreated, "u1", "gone"),
		amqp.NewEvent(amqp.EventGoalUpdated, "u1", "g1"),
		amqp.NewEvent(amqp.EventPasswordReset, "u1", ""),
	} {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("%s: %v", ev.Type, err)
		}
	}
	if mirror.Len() != 0 {
		t.Fatal("nothing should be mirrored")
	}
}

type resetRecorder struct {
	got []amqp.Event
	err error
}

func (r *resetRecorder) HandlePasswordReset(_ context.Context, ev amqp.Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestHandleEventPasswordReset(t *testing.T) {
	rec := &resetRecorder{err: errors.New("smtp down")}
	w := NewSyncWorker(memory.New(), sheetsmem.New(), rec, log.Nop())

	ev := amqp.NewEvent(amqp.EventPasswordReset, "u1", "")
	ev.Email = "ada@example.com"
	if err := w.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected handler error to be returned for redelivery")
	}
	if len(rec.got) != 1 || rec.got[0].Email != "ada@example.com" {
		t.Fatalf("unexpected reset events: %+v", rec.got)
	}
}

func TestResync(t *testing.T) {
	st := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(st, mirror, nil, log.Nop())

	seed(t, st, "u1", 100)
	seed(t, st, "u1", 200)
	seed(t, st, "u2", 300)

	n, err := w.Resync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if n != 2 || mirror.Len() != 2 {
		t.Fatalf("synced %d, mirror has %d rows", n, mirror.Len())
	}
}
