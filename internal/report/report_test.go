package report

import (
	"bytes"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/insights"
)

func TestBar(t *testing.T) {
	tests := []struct {
		pct, filled int
	}{
		{-5, 0},
		{0, 0},
		{50, 5},
		{100, 10},
		{250, 10},
	}
	for _, tt := range tests {
		got := Bar(tt.pct, 10)
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("Bar(%d): %d filled cells, want %d", tt.pct, n, tt.filled)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != 10 {
			t.Errorf("Bar(%d): width %d", tt.pct, n)
		}
	}
}

func TestCategoriesEmpty(t *testing.T) {
	if got := Categories(nil); !strings.Contains(got, "No spending") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestDashboard(t *testing.T) {
	d := insights.Dashboard{
		Window: insights.WindowMonth,
		Overview: insights.Overview{
			Income:   core.Money{Cents: 100000},
			Expenses: core.Money{Cents: 30000},
			Balance:  core.Money{Cents: 70000},
		},
		Categories: []insights.Share{
			{LabelTotal: insights.LabelTotal{Label: "Rent", Amount: core.Money{Cents: 30000}}, Percent: 100},
		},
	}
	cal := insights.CalendarSummary{
		Scope:  insights.ScopeMonth,
		Period: "2024-03",
		Days: []insights.DaySummary{
			{Day: "2024-03-01", TxCount: 1, Income: core.Money{Cents: 100000}},
		},
		TxCount: 1,
		Income:  core.Money{Cents: 100000},
	}

	var buf bytes.Buffer
	if err := Dashboard(&buf, "Ana", d, cal); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ana", "month", "1000.00", "700.00", "Rent", "100%", "2024-03-01", "Total 2024-03"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}
