package sheets

import (
	"time"

	"fintrack/internal/core"
)

// Row renders t in Header order. Amounts are written in currency units so
// the sheet can sum them.
func Row(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.Format(core.DayLayout),
		string(t.Kind()),
		Label(t.Entry),
		t.Amount.Decimal().InexactFloat64(),
		t.Notes,
		t.UserID,
		t.CreatedAt.Format(time.RFC3339),
	}
}

// Label is the category name for income and expenses and the goal name
// for contributions, falling back to the ids.
func Label(e core.Entry) string {
	label, _ := core.MatchEntry(e,
		func(v core.Income) string { return firstNonEmpty(v.Category.Name, v.Category.ID) },
		func(v core.Expense) string { return firstNonEmpty(v.Category.Name, v.Category.ID) },
		func(v core.GoalContribution) string { return "Goal: " + firstNonEmpty(v.Goal.Name, v.Goal.ID) },
	)
	return label
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
