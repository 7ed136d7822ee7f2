package insights

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Overview holds the headline totals of the dashboard.
type Overview struct {
	Income           core.Money `json:"income"`
	Expenses         core.Money `json:"expenses"`
	Balance          core.Money `json:"balance"`
	GoalsCount       int        `json:"goalsCount"`
	GoalsTarget      core.Money `json:"goalsTarget"`
	GoalsSaved       core.Money `json:"goalsSaved"`
	GoalsProgressPct int        `json:"goalsProgressPct"`
}

// Summarize computes the overview. Only expense entries count as
// expenses; goal contributions are tracked through the goals themselves.
func Summarize(txs []core.Transaction, goals []core.Goal) Overview {
	var o Overview
	for _, t := range txs {
		switch t.Kind() {
		case core.KindIncome:
			o.Income = o.Income.Add(t.Amount)
		case core.KindExpense:
			o.Expenses = o.Expenses.Add(t.Amount)
		}
	}
	o.Balance = o.Income.Sub(o.Expenses)

	o.GoalsCount = len(goals)
	for _, g := range goals {
		o.GoalsTarget = o.GoalsTarget.Add(g.TargetAmount)
		o.GoalsSaved = o.GoalsSaved.Add(g.CurrentAmount)
	}
	o.GoalsProgressPct = percent(o.GoalsSaved, o.GoalsTarget)
	return o
}

// percent is round(part/whole*100), or 0 when whole is not positive.
func percent(part, whole core.Money) int {
	if whole.Cents <= 0 {
		return 0
	}
	return int(part.Decimal().
		Div(whole.Decimal()).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart())
}
