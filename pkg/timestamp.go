package pkg

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseTimestamp accepts RFC3339 (with or without fractional seconds) or a
// plain YYYY-MM-DD date, which is taken as midnight in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}
