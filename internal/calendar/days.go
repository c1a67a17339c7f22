package calendar

import "tradecal/internal/exchange"

// DayInfo describes one calendar date of an exchange.
type DayInfo struct {
	Date       exchange.Date
	TradingDay bool
	Holiday    bool
	Special    bool
	Hours      exchange.Hours
}

// Day classifies d against q's schedule.
func Day(q Querier, d exchange.Date) DayInfo {
	s := q.Schedule()
	return DayInfo{
		Date:       d,
		TradingDay: s.IsTradingDay(d),
		Holiday:    s.IsHoliday(d),
		Special:    s.IsSpecialDay(d),
		Hours:      s.TradingHours(d),
	}
}

// Days classifies every date in [from, to].
func Days(q Querier, from, to exchange.Date) []DayInfo {
	var out []DayInfo
	for d := from; !d.After(to); d = d.AddDays(1) {
		out = append(out, Day(q, d))
	}
	return out
}
