package insights

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// SeriesPoint is one day of the income/expense/goals line chart.
type SeriesPoint struct {
	Day     string     `json:"day"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Goals   core.Money `json:"goals"`
}

// DailySeries sums transactions per local day and kind, sorted by day.
func DailySeries(loc *time.Location, txs []core.Transaction) []SeriesPoint {
	byDay := make(map[string]*SeriesPoint)
	for _, t := range txs {
		key, ok := DayKey(loc, TransactionDates(t)...)
		if !ok {
			continue
		}
		p, ok := byDay[key]
		if !ok {
			p = &SeriesPoint{Day: key}
			byDay[key] = p
		}
		switch t.Kind() {
		case core.KindIncome:
			p.Income = p.Income.Add(t.Amount)
		case core.KindGoal:
			p.Goals = p.Goals.Add(t.Amount)
		default:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}

	out := make([]SeriesPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
