// Package sheets defines the spreadsheet mirror of the ledger. The mirror
// is a reporting copy: the store stays the source of truth.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror keeps one row per transaction, keyed by its id.
	TransactionMirror interface {
		// Upsert writes t, replacing an existing row with the same id.
		Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)
		// Remove clears the row of the transaction. A missing row is not an error.
		Remove(ctx context.Context, transactionID string) error
	}
)

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "Date", "Type", "Label", "Amount", "Notes", "User", "Created"}
