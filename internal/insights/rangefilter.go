package insights

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

// Window selects a relative time range.
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
	WindowAll   Window = "all"
)

// ParseWindow maps a selector to a Window. Unknown values select everything.
func ParseWindow(s string) Window {
	switch Window(strings.ToLower(strings.TrimSpace(s))) {
	case WindowWeek:
		return WindowWeek
	case WindowMonth:
		return WindowMonth
	case WindowYear:
		return WindowYear
	default:
		return WindowAll
	}
}

// FilterRange returns the items whose date falls in the window relative to
// now. The week window is [now-7d, now] on the full instant, with 7d
// counted in calendar days in now's location so a DST change does not
// shift the bound by an hour; month and year
// compare calendar components in now's location. WindowAll returns items
// unchanged. Items whose date does not parse are excluded by every other
// window. The input slice is never modified.
func FilterRange[T any](items []T, dates func(T) []any, w Window, now time.Time) []T {
	if w == WindowAll {
		return items
	}
	loc := now.Location()
	from := now.AddDate(0, 0, -7)

	out := make([]T, 0, len(items))
	for _, item := range items {
		t, ok := core.FirstInstant(loc, dates(item)...)
		if !ok {
			continue
		}
		if inWindow(t.In(loc), w, now, from) {
			out = append(out, item)
		}
	}
	return out
}

func inWindow(t time.Time, w Window, now, weekStart time.Time) bool {
	switch w {
	case WindowWeek:
		return !t.Before(weekStart) && !t.After(now)
	case WindowMonth:
		return t.Year() == now.Year() && t.Month() == now.Month()
	case WindowYear:
		return t.Year() == now.Year()
	default:
		return true
	}
}
