package insights

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Scope is the span of a calendar summary.
type Scope string

const (
	ScopeWeek  Scope = "week"
	ScopeMonth Scope = "month"
	ScopeYear  Scope = "year"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeWeek:
		return ScopeWeek, nil
	case ScopeMonth, "":
		return ScopeMonth, nil
	case ScopeYear:
		return ScopeYear, nil
	default:
		return "", fmt.Errorf("invalid scope %q", s)
	}
}

// DaySummary describes one calendar day with records.
type DaySummary struct {
	Day          string             `json:"day"`
	TxCount      int                `json:"txCount"`
	GoalCount    int                `json:"goalCount"`
	Income       core.Money         `json:"income"`
	Expense      core.Money         `json:"expense"`
	Transactions []core.Transaction `json:"transactions"`
	Goals        []core.Goal        `json:"goals"`
}

// CalendarSummary aggregates the days of a week, month or year.
type CalendarSummary struct {
	Scope     Scope        `json:"scope"`
	Period    string       `json:"period"`
	Days      []DaySummary `json:"days"`
	TxCount   int          `json:"txCount"`
	GoalCount int          `json:"goalCount"`
	Income    core.Money   `json:"income"`
	Expense   core.Money   `json:"expense"`
	Net       core.Money   `json:"net"`
}

// SummarizeCalendar collects the bucketed days that share the anchor's ISO
// week, month or year. Days are sorted; every non-income transaction counts
// as expense for the day.
func SummarizeCalendar(b Buckets, scope Scope, anchor time.Time) CalendarSummary {
	loc := anchor.Location()
	period := periodKey(scope, anchor)
	s := CalendarSummary{Scope: scope, Period: period, Days: []DaySummary{}}

	for _, key := range b.Keys() {
		d, err := core.ParseDay(key, loc)
		if err != nil || periodKey(scope, d) != period {
			continue
		}
		bucket := b.Day(key)
		ds := DaySummary{
			Day:          key,
			TxCount:      len(bucket.Transactions),
			GoalCount:    len(bucket.Goals),
			Transactions: bucket.Transactions,
			Goals:        bucket.Goals,
		}
		for _, t := range bucket.Transactions {
			if t.Kind() == core.KindIncome {
				ds.Income = ds.Income.Add(t.Amount)
			} else {
				ds.Expense = ds.Expense.Add(t.Amount)
			}
		}
		s.Days = append(s.Days, ds)
		s.TxCount += ds.TxCount
		s.GoalCount += ds.GoalCount
		s.Income = s.Income.Add(ds.Income)
		s.Expense = s.Expense.Add(ds.Expense)
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// periodKey formats the period containing t: 2024-W11, 2024-03 or 2024.
func periodKey(scope Scope, t time.Time) string {
	switch scope {
	case ScopeWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case ScopeYear:
		return fmt.Sprintf("%d", t.Year())
	default:
		return t.Format("2006-01")
	}
}
