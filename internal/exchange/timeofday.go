package exchange

import (
	"fmt"
	"time"
)

// TimeOfDay is a zone-naive wall-clock time, stored as minutes after
// midnight.
type TimeOfDay int

// NewTimeOfDay returns the TimeOfDay for hour:minute. It does not validate.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses an "HH:MM" string in the range 00:00-23:59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parsing time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0-59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Duration returns the offset of t from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// OffsetOf returns the wall-clock offset of ts from midnight in ts's own
// location. It is comparable with TimeOfDay.Duration.
func OffsetOf(ts time.Time) time.Duration {
	return time.Duration(ts.Hour())*time.Hour +
		time.Duration(ts.Minute())*time.Minute +
		time.Duration(ts.Second())*time.Second +
		time.Duration(ts.Nanosecond())
}

// Hours is an open/close pair for one trading session.
type Hours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// Contains reports whether the wall-clock offset falls in [Open, Close).
func (h Hours) Contains(offset time.Duration) bool {
	return h.Open.Duration() <= offset && offset < h.Close.Duration()
}

func (h Hours) String() string {
	return h.Open.String() + "-" + h.Close.String()
}
