package util

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Day-first slashes match hand-kept logbooks.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate accepts the layouts above or unix seconds and returns the UTC
// calendar day. It reports false when nothing matched.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return day(time.Unix(ts, 0)), true
	}
	return time.Time{}, false
}

// ParseDateDefault parses s or returns def if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
