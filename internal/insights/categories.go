package insights

import (
	"fintrack/internal/core"
)

const (
	UncategorizedLabel = "Uncategorized"
	UnknownGoalLabel   = "Unknown"
	goalLabelPrefix    = "Goal: "
)

// LabelTotal is the summed amount of one breakdown label.
type LabelTotal struct {
	Label  string     `json:"label"`
	Amount core.Money `json:"amount"`
}

// CategoryTotals sums expenses per category and goal contributions per
// goal. Income and non-positive amounts do not contribute. Labels keep the
// order of their first occurrence in txs.
func CategoryTotals(txs []core.Transaction) []LabelTotal {
	var out []LabelTotal
	index := make(map[string]int)

	for _, t := range txs {
		if !t.Amount.IsPositive() {
			continue
		}
		label, ok := breakdownLabel(t.Entry)
		if !ok {
			continue
		}
		if i, seen := index[label]; seen {
			out[i].Amount = out[i].Amount.Add(t.Amount)
			continue
		}
		index[label] = len(out)
		out = append(out, LabelTotal{Label: label, Amount: t.Amount})
	}
	return out
}

func breakdownLabel(e core.Entry) (string, bool) {
	type labelled struct {
		label string
		ok    bool
	}
	res, _ := core.MatchEntry(e,
		func(core.Income) labelled { return labelled{} },
		func(v core.Expense) labelled {
			return labelled{firstNonEmpty(v.Category.Name, v.Category.ID, UncategorizedLabel), true}
		},
		func(v core.GoalContribution) labelled {
			return labelled{goalLabelPrefix + firstNonEmpty(v.Goal.Name, v.Goal.ID, UnknownGoalLabel), true}
		},
	)
	return res.label, res.ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// SumTotals adds up a breakdown.
func SumTotals(totals []LabelTotal) core.Money {
	var sum core.Money
	for _, lt := range totals {
		sum = sum.Add(lt.Amount)
	}
	return sum
}

// Share is a breakdown entry with its rounded percentage of the total.
type Share struct {
	LabelTotal
	Percent int `json:"percent"`
}

// Shares attaches percentages to a breakdown for proportional displays.
func Shares(totals []LabelTotal) []Share {
	sum := SumTotals(totals)
	out := make([]Share, 0, len(totals))
	for _, lt := range totals {
		out = append(out, Share{LabelTotal: lt, Percent: percent(lt.Amount, sum)})
	}
	return out
}
