// Package exchange models the static trading schedule of a single exchange:
// its timezone, weekly trading days, default session hours, holidays and
// per-date session overrides. A Schedule is immutable once built and may be
// shared freely between goroutines.
package exchange

import (
	"errors"
	"sort"
	"time"
)

// Spec is the parsed, typed input to New.
type Spec struct {
	Name     string
	Timezone string

	// Hours are the default session hours.
	Hours Hours

	TradingDays []time.Weekday
	Holidays    []Date
	SpecialDays map[Date]Hours

	// HolidayCalendar optionally names a rule-based holiday calendar
	// (see HolidayCalendarNames) whose observed dates count as holidays.
	HolidayCalendar string
}

// Schedule is the immutable trading schedule of one exchange.
type Schedule struct {
	name        string
	loc         *time.Location
	hours       Hours
	tradingDays [7]bool
	holidays    map[Date]struct{}
	specialDays map[Date]Hours
	holidayCal  *holidayCalendar
}

// New validates spec and builds a Schedule. Any violation is reported as a
// *ConfigError and no Schedule is returned.
func New(spec Spec) (*Schedule, error) {
	name := spec.Name
	if name == "" {
		return nil, configErr(name, "name", "required")
	}
	if spec.Timezone == "" {
		return nil, configErr(name, "timezone", "required")
	}
	loc, err := time.LoadLocation(spec.Timezone)
	if err != nil {
		return nil, &ConfigError{Exchange: name, Field: "timezone", Err: err}
	}
	if err := validateHours(spec.Hours); err != nil {
		return nil, &ConfigError{Exchange: name, Field: "open_time/close_time", Err: err}
	}

	s := &Schedule{
		name:        name,
		loc:         loc,
		hours:       spec.Hours,
		holidays:    make(map[Date]struct{}, len(spec.Holidays)),
		specialDays: make(map[Date]Hours, len(spec.SpecialDays)),
	}

	if len(spec.TradingDays) == 0 {
		return nil, configErr(name, "trading_days", "at least one trading day is required")
	}
	for _, wd := range spec.TradingDays {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, configErr(name, "trading_days", "invalid weekday %d", int(wd))
		}
		s.tradingDays[wd] = true
	}

	for _, d := range spec.Holidays {
		s.holidays[d] = struct{}{}
	}

	for d, h := range spec.SpecialDays {
		if err := validateHours(h); err != nil {
			return nil, configErr(name, "special_trading_days", "%s: %v", d, err)
		}
		s.specialDays[d] = h
	}

	if spec.HolidayCalendar != "" {
		hc, ok := newHolidayCalendar(spec.HolidayCalendar)
		if !ok {
			return nil, configErr(name, "holiday_calendar", "unknown calendar %q (supported: %v)",
				spec.HolidayCalendar, HolidayCalendarNames())
		}
		s.holidayCal = hc
	}

	return s, nil
}

func validateHours(h Hours) error {
	if h.Open < 0 || h.Close > NewTimeOfDay(23, 59) {
		return errors.New("hours out of range")
	}
	if h.Open >= h.Close {
		return errors.New("open must be before close")
	}
	return nil
}

// Name returns the exchange name.
func (s *Schedule) Name() string { return s.name }

// Location returns the exchange timezone.
func (s *Schedule) Location() *time.Location { return s.loc }

// DefaultHours returns the default open/close pair.
func (s *Schedule) DefaultHours() Hours { return s.hours }

// HolidayCalendar returns the configured named holiday calendar, or "".
func (s *Schedule) HolidayCalendar() string {
	if s.holidayCal == nil {
		return ""
	}
	return s.holidayCal.name
}

// IsTradingDay reports whether d falls on a weekly trading day and is not a
// holiday.
func (s *Schedule) IsTradingDay(d Date) bool {
	return s.tradingDays[d.Weekday()] && !s.IsHoliday(d)
}

// IsHoliday reports whether d is a configured holiday or observed by the
// named holiday calendar.
func (s *Schedule) IsHoliday(d Date) bool {
	if _, ok := s.holidays[d]; ok {
		return true
	}
	return s.holidayCal != nil && s.holidayCal.observes(d)
}

// IsSpecialDay reports whether d has overridden session hours.
func (s *Schedule) IsSpecialDay(d Date) bool {
	_, ok := s.specialDays[d]
	return ok
}

// TradingHours returns the session hours for d: the special-day override
// when one exists, otherwise the defaults. It does not check whether d is a
// trading day.
func (s *Schedule) TradingHours(d Date) Hours {
	if h, ok := s.specialDays[d]; ok {
		return h
	}
	return s.hours
}

// TradingDays returns the weekly trading days in Sunday-first order.
func (s *Schedule) TradingDays() []time.Weekday {
	var days []time.Weekday
	for wd, ok := range s.tradingDays {
		if ok {
			days = append(days, time.Weekday(wd))
		}
	}
	return days
}

// Holidays returns the explicitly configured holidays in ascending order.
func (s *Schedule) Holidays() []Date {
	out := make([]Date, 0, len(s.holidays))
	for d := range s.holidays {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// SpecialDay is one dated override.
type SpecialDay struct {
	Date  Date
	Hours Hours
}

// SpecialDays returns the session overrides in ascending date order.
func (s *Schedule) SpecialDays() []SpecialDay {
	out := make([]SpecialDay, 0, len(s.specialDays))
	for d, h := range s.specialDays {
		out = append(out, SpecialDay{Date: d, Hours: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Conflicts returns dates configured both as holiday and special day. The
// holiday wins for such dates.
func (s *Schedule) Conflicts() []Date {
	var out []Date
	for _, sd := range s.SpecialDays() {
		if _, ok := s.holidays[sd.Date]; ok {
			out = append(out, sd.Date)
		}
	}
	return out
}
