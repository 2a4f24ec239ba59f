package marketdata

import (
	"time"

	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// NormalizeTime converts a zone-aware time to UTC.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC()
}

// ParseTimeIn parses a timestamp at the system boundary. RFC 3339 input keeps
// its offset; naive layouts are read in loc.
func ParseTimeIn(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return NormalizeTime(t), nil
	}

	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range []string{time.DateTime, "2006-01-02T15:04:05", "2006-01-02 15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return NormalizeTime(t), nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeInvalidParameter, "unrecognized time %q", value)
}
