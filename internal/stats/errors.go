package stats

import (
	"fmt"
	"time"

	"github.com/2beens/gymbuddy/pkg"
)

// ValidationError is returned for malformed input: a missing or unparsable
// timestamp, or a negative numeric field. Callers get it unmodified.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseTimestamp parses RFC3339 or YYYY-MM-DD (midnight in loc).
func ParseTimestamp(field, value string, loc *time.Location) (time.Time, error) {
	t, err := pkg.ParseTimestamp(value, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: err.Error()}
	}
	return t, nil
}
