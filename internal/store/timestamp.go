package store

import (
	"fmt"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts a structured time or an ISO-8601 string and returns
// an absolute UTC instant. Strings without an offset are taken as UTC.
func ParseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return AsUTC(t), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("timestamp: nil")
		}
		return AsUTC(*t), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range isoLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("timestamp: cannot parse %q", t)
	default:
		return time.Time{}, fmt.Errorf("timestamp: unsupported type %T", v)
	}
}

// AsUTC returns the same instant in UTC.
func AsUTC(t time.Time) time.Time {
	return t.UTC()
}
