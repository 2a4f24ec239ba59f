package marketdata

import (
	"strings"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
)

// Interval is a candle width in exchange notation.
// Monthly bars are not supported since they have no fixed duration.
type Interval string

const (
	IntervalOneSecond      Interval = "1s"
	IntervalOneMinute      Interval = "1m"
	IntervalThreeMinutes   Interval = "3m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalTwoHours       Interval = "2h"
	IntervalFourHours      Interval = "4h"
	IntervalSixHours       Interval = "6h"
	IntervalEightHours     Interval = "8h"
	IntervalTwelveHours    Interval = "12h"
	IntervalOneDay         Interval = "1d"
	IntervalThreeDays      Interval = "3d"
	IntervalOneWeek        Interval = "1w"
)

// DefaultInterval is used when a caller does not pick one.
const DefaultInterval = IntervalFiveMinutes

var intervalDurations = map[Interval]time.Duration{
	IntervalOneSecond:      time.Second,
	IntervalOneMinute:      time.Minute,
	IntervalThreeMinutes:   3 * time.Minute,
	IntervalFiveMinutes:    5 * time.Minute,
	IntervalFifteenMinutes: 15 * time.Minute,
	IntervalThirtyMinutes:  30 * time.Minute,
	IntervalOneHour:        time.Hour,
	IntervalTwoHours:       2 * time.Hour,
	IntervalFourHours:      4 * time.Hour,
	IntervalSixHours:       6 * time.Hour,
	IntervalEightHours:     8 * time.Hour,
	IntervalTwelveHours:    12 * time.Hour,
	IntervalOneDay:         24 * time.Hour,
	IntervalThreeDays:      72 * time.Hour,
	IntervalOneWeek:        7 * 24 * time.Hour,
}

// Intervals returns every supported interval from shortest to longest.
func Intervals() []Interval {
	return []Interval{
		IntervalOneSecond, IntervalOneMinute, IntervalThreeMinutes, IntervalFiveMinutes,
		IntervalFifteenMinutes, IntervalThirtyMinutes, IntervalOneHour, IntervalTwoHours,
		IntervalFourHours, IntervalSixHours, IntervalEightHours, IntervalTwelveHours,
		IntervalOneDay, IntervalThreeDays, IntervalOneWeek,
	}
}

// ParseInterval validates s as an interval. "1M" is rejected; every other
// value is matched exactly.
func ParseInterval(s string) (Interval, error) {
	interval := Interval(strings.TrimSpace(s))
	if !interval.Valid() {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", s)
	}

	return interval, nil
}

// Valid reports whether the interval is supported.
func (i Interval) Valid() bool {
	_, ok := intervalDurations[i]

	return ok
}

// Duration returns the width of one bar, or 0 for an unsupported interval.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

func (i Interval) String() string {
	return string(i)
}

// PolygonTimespan splits the interval into the multiplier and unit used by
// the Polygon aggregates endpoint.
func (i Interval) PolygonTimespan() (int, models.Timespan) {
	switch i {
	case IntervalOneSecond:
		return 1, models.Second
	case IntervalOneMinute:
		return 1, models.Minute
	case IntervalThreeMinutes:
		return 3, models.Minute
	case IntervalFiveMinutes:
		return 5, models.Minute
	case IntervalFifteenMinutes:
		return 15, models.Minute
	case IntervalThirtyMinutes:
		return 30, models.Minute
	case IntervalOneHour:
		return 1, models.Hour
	case IntervalTwoHours:
		return 2, models.Hour
	case IntervalFourHours:
		return 4, models.Hour
	case IntervalSixHours:
		return 6, models.Hour
	case IntervalEightHours:
		return 8, models.Hour
	case IntervalTwelveHours:
		return 12, models.Hour
	case IntervalOneDay:
		return 1, models.Day
	case IntervalThreeDays:
		return 3, models.Day
	case IntervalOneWeek:
		return 1, models.Week
	default:
		return 1, models.Day
	}
}
