package exchange

import (
	"fmt"
	"time"
)

// instantLayouts are tried in order by ParseInstant. Layouts without a zone
// are interpreted in the exchange timezone.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseInstant parses an RFC 3339 timestamp, a zone-less local timestamp or
// a bare "YYYY-MM-DD" date. Zone-less values are read in loc. dateOnly
// reports whether s was a bare date, which is resolved to local midnight.
func ParseInstant(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing instant %q: want RFC 3339, \"YYYY-MM-DD HH:MM\" or \"YYYY-MM-DD\"", s)
	}
	return d.Midnight(loc), true, nil
}

// ParseRangeEnd is ParseInstant for the inclusive end of a range: a bare
// date covers the whole day.
func ParseRangeEnd(s string, loc *time.Location) (time.Time, error) {
	t, dateOnly, err := ParseInstant(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if dateOnly {
		return DateOf(t).AddDays(1).Midnight(loc).Add(-time.Nanosecond), nil
	}
	return t, nil
}
