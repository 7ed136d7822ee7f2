// Package insights derives the dashboard views from raw transactions and
// goals: day buckets, range filtering, category breakdowns, overview totals,
// calendar summaries and daily series. Every function is pure; the current
// time and the location used for calendar days are passed in.
package insights

import (
	"time"

	"fintrack/internal/core"
)

// DayKey returns the local YYYY-MM-DD key of the first parseable candidate.
// ok is false when no candidate parses, which marks the record as
// unbucketable.
func DayKey(loc *time.Location, candidates ...any) (key string, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	t, ok := core.FirstInstant(loc, candidates...)
	if !ok {
		return "", false
	}
	return t.In(loc).Format(core.DayLayout), true
}

// TransactionDates lists a transaction's date fields in priority order.
func TransactionDates(t core.Transaction) []any {
	return []any{t.Date, t.CreatedAt}
}

// GoalDates lists a goal's date fields in priority order.
func GoalDates(g core.Goal) []any {
	return []any{g.TargetDate, g.CreatedAt}
}
