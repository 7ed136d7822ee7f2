package core

import (
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// instant layouts carry a time of day; zone-less ones are read in the
// caller's location.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseInstant interprets a date-like value. Supported values are
// time.Time, *time.Time, strings in RFC 3339 or date-only form and int64
// unix milliseconds. Zero times, blank strings and nil are not parseable.
// Date-only strings are midnight in loc.
func ParseInstant(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case int64:
		if t <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(t), true
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)), true
	case string:
		return parseInstantString(strings.TrimSpace(t), loc)
	default:
		return time.Time{}, false
	}
}

func parseInstantString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == len(DayLayout) {
		if d, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
			return d, true
		}
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FirstInstant returns the first parseable candidate.
func FirstInstant(loc *time.Location, candidates ...any) (time.Time, bool) {
	for _, c := range candidates {
		if t, ok := ParseInstant(c, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDay parses a YYYY-MM-DD calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
