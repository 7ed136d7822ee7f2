package insights

import (
	"time"

	"fintrack/internal/core"
)

// Dashboard bundles the views shown for one range window.
type Dashboard struct {
	Window       Window             `json:"window"`
	Overview     Overview           `json:"overview"`
	Categories   []Share            `json:"categories"`
	Transactions []core.Transaction `json:"transactions"`
	Goals        []core.Goal        `json:"goals"`
	Buckets      Buckets            `json:"buckets"`
}

// BuildDashboard filters both collections to the window and derives the
// overview, the category breakdown and the day buckets from what remains.
// Buckets are keyed in now's location.
func BuildDashboard(txs []core.Transaction, goals []core.Goal, w Window, now time.Time) Dashboard {
	ftx := FilterRange(txs, TransactionDates, w, now)
	fgoals := FilterRange(goals, GoalDates, w, now)
	return Dashboard{
		Window:       w,
		Overview:     Summarize(ftx, fgoals),
		Categories:   Shares(CategoryTotals(ftx)),
		Transactions: nonNil(ftx),
		Goals:        nonNil(fgoals),
		Buckets:      BucketByDay(now.Location(), ftx, fgoals),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
