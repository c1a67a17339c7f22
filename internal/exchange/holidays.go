package exchange

import (
	"sort"
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
	"github.com/rickar/cal/v2/us"
)

// Named holiday calendars that an exchange configuration may reference with
// "holiday_calendar".
const (
	HolidayCalendarUSFederal = "us_federal"
	HolidayCalendarNYSE      = "nyse"
)

// nyseNewYear moves a Sunday New Year to Monday. A Saturday New Year is not
// observed on the Friday before, which closes the NYSE fiscal year.
var nyseNewYear = &cal.Holiday{
	Name:     "New Year's Day",
	Type:     cal.ObservancePublic,
	Month:    time.January,
	Day:      1,
	Observed: []cal.AltDay{{Day: time.Sunday, Offset: 1}},
	Func:     cal.CalcDayOfMonth,
}

// nyseJuneteenth is first observed by the NYSE in 2022.
var nyseJuneteenth = func() *cal.Holiday {
	h := *us.Juneteenth
	h.StartYear = 2022
	return &h
}()

var holidayCalendars = map[string]func() *cal.BusinessCalendar{
	HolidayCalendarUSFederal: func() *cal.BusinessCalendar {
		c := cal.NewBusinessCalendar()
		c.AddHoliday(
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ColumbusDay,
			us.VeteransDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		)
		return c
	},
	HolidayCalendarNYSE: func() *cal.BusinessCalendar {
		c := cal.NewBusinessCalendar()
		c.AddHoliday(
			nyseNewYear,
			us.MlkDay,
			us.PresidentsDay,
			aa.GoodFriday,
			us.MemorialDay,
			nyseJuneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		)
		return c
	},
}

// HolidayCalendarNames returns the supported holiday calendar names, sorted.
func HolidayCalendarNames() []string {
	names := make([]string, 0, len(holidayCalendars))
	for name := range holidayCalendars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// holidayCalendar wraps a rule-based calendar. Only observed dates count.
type holidayCalendar struct {
	name string
	cal  *cal.BusinessCalendar
}

func newHolidayCalendar(name string) (*holidayCalendar, bool) {
	build, ok := holidayCalendars[name]
	if !ok {
		return nil, false
	}
	return &holidayCalendar{name: name, cal: build()}, true
}

func (h *holidayCalendar) observes(d Date) bool {
	_, observed, _ := h.cal.IsHoliday(d.Midnight(time.UTC))
	return observed
}
