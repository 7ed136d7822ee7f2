// Package report renders insight views for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fintrack/internal/insights"
)

var (
	ColorBorder  = lipgloss.Color("#282726")
	ColorTextDim = lipgloss.Color("#575653")
	ColorText    = lipgloss.Color("#FFFCF0")
	ColorAccent  = lipgloss.Color("#3AA99F")
	ColorGreen   = lipgloss.Color("#879A39")
	ColorOrange  = lipgloss.Color("#DA702C")
	ColorRed     = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// Title renders a centered title in a rounded box.
func Title(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(48).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		})
}

// Overview renders the headline figures.
func Overview(o insights.Overview) string {
	t := newTable("Figure", "Amount").Rows(
		[]string{"Income", o.Income.String()},
		[]string{"Expenses", o.Expenses.String()},
		[]string{"Balance", o.Balance.String()},
		[]string{"Goals", fmt.Sprintf("%d", o.GoalsCount)},
		[]string{"Saved / target", o.GoalsSaved.String() + " / " + o.GoalsTarget.String()},
		[]string{"Goal progress", Bar(o.GoalsProgressPct, 20) + fmt.Sprintf(" %d%%", o.GoalsProgressPct)},
	)
	return t.Render()
}

// Categories renders the spending breakdown. An empty breakdown renders a
// placeholder line.
func Categories(shares []insights.Share) string {
	if len(shares) == 0 {
		return dimStyle.Render("No spending in this window.")
	}
	t := newTable("Category", "Amount", "Share")
	for _, s := range shares {
		t.Row(s.Label, s.Amount.String(), fmt.Sprintf("%d%%", s.Percent))
	}
	return t.Render()
}

// Calendar renders one row per active day of a calendar summary.
func Calendar(c insights.CalendarSummary) string {
	t := newTable("Day", "Items", "Income", "Expense")
	for _, d := range c.Days {
		t.Row(d.Day, fmt.Sprintf("%d", d.TxCount+d.GoalCount), d.Income.String(), d.Expense.String())
	}
	t.Row("Total "+c.Period, fmt.Sprintf("%d", c.TxCount+c.GoalCount), c.Income.String(), c.Expense.String())
	return t.Render()
}

// Bar draws a progress bar of width cells for pct, clamped to 0..100.
func Bar(pct, width int) string {
	pct = max(0, min(pct, 100))
	filled := pct * width / 100

	color := ColorRed
	switch {
	case pct >= 80:
		color = ColorGreen
	case pct >= 40:
		color = ColorOrange
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// Dashboard writes the full summary for a dashboard and its calendar.
func Dashboard(w io.Writer, name string, d insights.Dashboard, cal insights.CalendarSummary) error {
	sections := []string{
		Title(fmt.Sprintf("%s · %s", name, d.Window)),
		Overview(d.Overview),
		Categories(d.Categories),
		Calendar(cal),
	}
	_, err := fmt.Fprintln(w, strings.Join(sections, "\n\n"))
	return err
}
