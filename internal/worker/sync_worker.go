// Package worker mirrors ledger events into the spreadsheet.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// ResetHandler delivers password reset events, typically by mail.
type ResetHandler interface {
	HandlePasswordReset(ctx context.Context, ev amqp.Event) error
}

// SyncWorker applies transaction events to a TransactionMirror. Events carry
// ids only, so the current record is always read from the store.
type SyncWorker struct {
	transactions store.TransactionStore
	mirror       sheets.TransactionMirror
	resets       ResetHandler
	logger       *log.Logger
}

func NewSyncWorker(transactions store.TransactionStore, mirror sheets.TransactionMirror, resets ResetHandler, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &SyncWorker{
		transactions: transactions,
		mirror:       mirror,
		resets:       resets,
		logger:       logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is the amqp consumer callback.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev amqp.Event) error {
	w.logger.InfoContext(ctx, "Processing event",
		log.FieldEventType, string(ev.Type), log.FieldUserID, ev.UserID, log.FieldTxID, ev.EntityID)

	switch ev.Type {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
		return w.syncTransaction(ctx, ev.UserID, ev.EntityID)
	case amqp.EventTransactionDeleted:
		if err := w.mirror.Remove(ctx, ev.EntityID); err != nil {
			return fmt.Errorf("remove from mirror: %w", err)
		}
		return nil
	case amqp.EventPasswordReset:
		if w.resets == nil {
			w.logger.WarnContext(ctx, "No reset handler configured, dropping password reset", log.FieldUserID, ev.UserID)
			return nil
		}
		return w.resets.HandlePasswordReset(ctx, ev)
	default:
		// Goal rows are not mirrored.
		return nil
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, userID, id string) error {
	txs, err := w.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	t, ok := find(txs, id)
	if !ok {
		// Deleted before the event was handled; the delete event clears the row.
		w.logger.DebugContext(ctx, "Transaction no longer exists", log.FieldTxID, id)
		return nil
	}
	ref, err := w.mirror.Upsert(ctx, t)
	if err != nil {
		return fmt.Errorf("upsert to mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Synced transaction",
		log.FieldTxID, id, log.FieldSheetsRef, ref, log.FieldAmountCents, t.Amount.Cents)
	return nil
}

// Resync writes every transaction of a user to the mirror. It is the
// recovery path for events lost while the worker was down.
func (w *SyncWorker) Resync(ctx context.Context, userID string) (synced int, err error) {
	txs, err := w.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	for _, t := range txs {
		if _, err := w.mirror.Upsert(ctx, t); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync transaction",
				log.NewFields().WithOperation(log.OpSync).WithUser(userID).WithError(err).ToSlice()...)
			continue
		}
		synced++
	}
	w.logger.InfoContext(ctx, "Resync completed", log.FieldUserID, userID, "total", len(txs), "synced", synced)
	return synced, nil
}

func find(txs []core.Transaction, id string) (core.Transaction, bool) {
	for _, t := range txs {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}
