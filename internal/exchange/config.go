package exchange

import (
	"sort"
	"time"
)

// Config is the on-disk exchange configuration record. Weekday indices run
// from 0 (Monday) to 6 (Sunday); dates are "YYYY-MM-DD" and times "HH:MM".
type Config struct {
	Name               string             `yaml:"name" json:"name"`
	Timezone           string             `yaml:"timezone" json:"timezone"`
	OpenTime           string             `yaml:"open_time" json:"open_time"`
	CloseTime          string             `yaml:"close_time" json:"close_time"`
	TradingDays        []int              `yaml:"trading_days" json:"trading_days"`
	Holidays           []string           `yaml:"holidays" json:"holidays"`
	SpecialTradingDays []SpecialDayConfig `yaml:"special_trading_days,omitempty" json:"special_trading_days,omitempty"`
	HolidayCalendar    string             `yaml:"holiday_calendar,omitempty" json:"holiday_calendar,omitempty"`
}

// SpecialDayConfig overrides the session hours of one date.
type SpecialDayConfig struct {
	Date      string `yaml:"date" json:"date"`
	OpenTime  string `yaml:"open_time" json:"open_time"`
	CloseTime string `yaml:"close_time" json:"close_time"`
}

// Build parses and validates c into a Schedule.
func (c Config) Build() (*Schedule, error) {
	spec, err := c.Spec()
	if err != nil {
		return nil, err
	}
	return New(spec)
}

// Spec parses the string fields of c. Structural checks that do not need
// parsing (ordering of hours, known calendars) are left to New.
func (c Config) Spec() (Spec, error) {
	name := c.Name
	if name == "" {
		return Spec{}, configErr(name, "name", "required")
	}
	if c.OpenTime == "" {
		return Spec{}, configErr(name, "open_time", "required")
	}
	if c.CloseTime == "" {
		return Spec{}, configErr(name, "close_time", "required")
	}
	if c.TradingDays == nil {
		return Spec{}, configErr(name, "trading_days", "required")
	}
	if c.Holidays == nil {
		return Spec{}, configErr(name, "holidays", "required")
	}

	open, err := ParseTimeOfDay(c.OpenTime)
	if err != nil {
		return Spec{}, &ConfigError{Exchange: name, Field: "open_time", Err: err}
	}
	closeAt, err := ParseTimeOfDay(c.CloseTime)
	if err != nil {
		return Spec{}, &ConfigError{Exchange: name, Field: "close_time", Err: err}
	}

	spec := Spec{
		Name:            name,
		Timezone:        c.Timezone,
		Hours:           Hours{Open: open, Close: closeAt},
		HolidayCalendar: c.HolidayCalendar,
	}

	for _, idx := range c.TradingDays {
		if idx < 0 || idx > 6 {
			return Spec{}, configErr(name, "trading_days", "weekday index %d out of range 0-6", idx)
		}
		spec.TradingDays = append(spec.TradingDays, WeekdayFromIndex(idx))
	}

	for _, s := range c.Holidays {
		d, err := ParseDate(s)
		if err != nil {
			return Spec{}, &ConfigError{Exchange: name, Field: "holidays", Err: err}
		}
		spec.Holidays = append(spec.Holidays, d)
	}

	if len(c.SpecialTradingDays) > 0 {
		spec.SpecialDays = make(map[Date]Hours, len(c.SpecialTradingDays))
	}
	for _, sd := range c.SpecialTradingDays {
		d, err := ParseDate(sd.Date)
		if err != nil {
			return Spec{}, &ConfigError{Exchange: name, Field: "special_trading_days", Err: err}
		}
		o, err := ParseTimeOfDay(sd.OpenTime)
		if err != nil {
			return Spec{}, configErr(name, "special_trading_days", "%s: %v", sd.Date, err)
		}
		cl, err := ParseTimeOfDay(sd.CloseTime)
		if err != nil {
			return Spec{}, configErr(name, "special_trading_days", "%s: %v", sd.Date, err)
		}
		if _, dup := spec.SpecialDays[d]; dup {
			return Spec{}, configErr(name, "special_trading_days", "duplicate date %s", d)
		}
		spec.SpecialDays[d] = Hours{Open: o, Close: cl}
	}

	return spec, nil
}

// WeekdayFromIndex converts a Monday-first index (0-6) to a time.Weekday.
func WeekdayFromIndex(idx int) time.Weekday {
	return time.Weekday((idx + 1) % 7)
}

// WeekdayIndex converts a time.Weekday to its Monday-first index.
func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// Config renders s back into its configuration record.
func (s *Schedule) Config() Config {
	c := Config{
		Name:            s.name,
		Timezone:        s.loc.String(),
		OpenTime:        s.hours.Open.String(),
		CloseTime:       s.hours.Close.String(),
		TradingDays:     []int{},
		Holidays:        []string{},
		HolidayCalendar: s.HolidayCalendar(),
	}
	for _, wd := range s.TradingDays() {
		c.TradingDays = append(c.TradingDays, WeekdayIndex(wd))
	}
	sort.Ints(c.TradingDays)
	for _, d := range s.Holidays() {
		c.Holidays = append(c.Holidays, d.String())
	}
	for _, sd := range s.SpecialDays() {
		c.SpecialTradingDays = append(c.SpecialTradingDays, SpecialDayConfig{
			Date:      sd.Date.String(),
			OpenTime:  sd.Hours.Open.String(),
			CloseTime: sd.Hours.Close.String(),
		})
	}
	return c
}
