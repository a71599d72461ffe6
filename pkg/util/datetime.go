package util

import (
	"fmt"
	"time"
)

// Accepted ISO-8601 local date-time layouts. Fractional seconds are accepted
// after the seconds field; offsets and zone designators are rejected.
var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseLocalDateTime parses an ISO-8601 date-time without offset, e.g. 2024-10-01T12:30:00.
// The result is expressed in UTC with the wall clock preserved.
func ParseLocalDateTime(s string) (time.Time, error) {
	for _, layout := range localDateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("text '%s' could not be parsed as a local date-time", s)
}

// FormatLocalDateTime renders the wall clock in the shortest ISO-8601 form:
// seconds are omitted when zero, and fractions use 3, 6 or 9 digits.
// The value is read in UTC, matching ParseLocalDateTime, whatever zone the driver returned it in.
func FormatLocalDateTime(t time.Time) string {
	t = t.UTC()
	out := t.Format("2006-01-02T15:04")
	sec, nano := t.Second(), t.Nanosecond()
	if sec == 0 && nano == 0 {
		return out
	}
	out += fmt.Sprintf(":%02d", sec)
	switch {
	case nano == 0:
	case nano%1_000_000 == 0:
		out += fmt.Sprintf(".%03d", nano/1_000_000)
	case nano%1_000 == 0:
		out += fmt.Sprintf(".%06d", nano/1_000)
	default:
		out += fmt.Sprintf(".%09d", nano)
	}
	return out
}
