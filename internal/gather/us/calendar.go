package us

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"tradecal/internal/exchange"
	"tradecal/internal/gather"
	"tradecal/internal/util"
)

// CalendarDay is one open market day reported by a CalendarSource.
type CalendarDay struct {
	Date  exchange.Date
	Hours exchange.Hours
}

// CalendarSource lists the open market days of a date range.
type CalendarSource interface {
	Calendar(ctx context.Context, r gather.DateRange) ([]CalendarDay, error)
}

// ---------------------------------------------------------------------------
// Alpaca
// ---------------------------------------------------------------------------

// AlpacaCalendarSource reads the US equity calendar from the Alpaca trading
// API.
type AlpacaCalendarSource struct {
	client *alpaca.Client
}

// NewAlpacaCalendarSource creates a source using the given Alpaca
// credentials. An empty baseURL uses the SDK default.
func NewAlpacaCalendarSource(apiKey, apiSecret, baseURL string) *AlpacaCalendarSource {
	return &AlpacaCalendarSource{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

// Calendar implements CalendarSource. Client errors other than rate limiting
// are marked permanent for util.Retry.
func (a *AlpacaCalendarSource) Calendar(ctx context.Context, r gather.DateRange) ([]CalendarDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	days, err := a.client.GetCalendar(alpaca.GetCalendarRequest{
		Start: r.From.Midnight(time.UTC),
		End:   r.To.Midnight(time.UTC),
	})
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			return nil, util.Permanent(fmt.Errorf("GetCalendar: %w", err))
		}
		return nil, fmt.Errorf("GetCalendar: %w", err)
	}

	out := make([]CalendarDay, 0, len(days))
	for _, day := range days {
		cd, err := parseAlpacaDay(day)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}

func parseAlpacaDay(day alpaca.CalendarDay) (CalendarDay, error) {
	d, err := exchange.ParseDate(day.Date)
	if err != nil {
		return CalendarDay{}, err
	}
	open, err := exchange.ParseTimeOfDay(day.Open)
	if err != nil {
		return CalendarDay{}, fmt.Errorf("%s open: %w", day.Date, err)
	}
	closeAt, err := exchange.ParseTimeOfDay(day.Close)
	if err != nil {
		return CalendarDay{}, fmt.Errorf("%s close: %w", day.Date, err)
	}
	return CalendarDay{Date: d, Hours: exchange.Hours{Open: open, Close: closeAt}}, nil
}

// ---------------------------------------------------------------------------
// ScheduleSync
// ---------------------------------------------------------------------------

const (
	syncMaxAttempts = 3
	syncBaseDelay   = time.Second
)

// SyncReport summarises one ScheduleSync pass.
type SyncReport struct {
	Days        int // open days reported by the source
	Holidays    int // weekday closures found
	SpecialDays int // days with non-default hours
}

// ScheduleSync derives holidays and special trading days from a
// CalendarSource.
type ScheduleSync struct {
	src     CalendarSource
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewScheduleSync creates a ScheduleSync that calls src at most perMinute
// times per minute.
func NewScheduleSync(src CalendarSource, perMinute int, log *slog.Logger) *ScheduleSync {
	return &ScheduleSync{
		src:     src,
		limiter: util.NewRateLimiter(perMinute),
		log:     log,
	}
}

// Sync fetches the source calendar for [from, to] one year at a time and
// returns base with the holidays and special days of that range replaced by
// what the source reports: a base trading weekday missing from the source is
// a holiday, and a reported day whose hours differ from the defaults is a
// special day. Entries of base outside the range are kept.
func (s *ScheduleSync) Sync(ctx context.Context, base exchange.Config, from, to exchange.Date) (exchange.Config, SyncReport, error) {
	var report SyncReport
	if to.Before(from) {
		return exchange.Config{}, report, fmt.Errorf("sync range %s..%s is empty", from, to)
	}
	sched, err := base.Build()
	if err != nil {
		return exchange.Config{}, report, err
	}

	open := make(map[exchange.Date]exchange.Hours)
	for _, chunk := range (gather.DateRange{From: from, To: to}).Years() {
		if err := s.limiter.Wait(ctx); err != nil {
			return exchange.Config{}, report, err
		}
		var days []CalendarDay
		err := util.Retry(ctx, syncMaxAttempts, syncBaseDelay, func() error {
			var err error
			days, err = s.src.Calendar(ctx, chunk)
			return err
		})
		if err != nil {
			return exchange.Config{}, report, fmt.Errorf("fetching %s..%s: %w", chunk.From, chunk.To, err)
		}
		for _, d := range days {
			if d.Date.Before(chunk.From) || d.Date.After(chunk.To) {
				continue
			}
			open[d.Date] = d.Hours
		}
		s.log.Info("fetched calendar", "exchange", base.Name, "from", chunk.From.String(),
			"to", chunk.To.String(), "days", len(days))
	}
	report.Days = len(open)

	weekdays := make(map[time.Weekday]bool)
	for _, wd := range sched.TradingDays() {
		weekdays[wd] = true
	}
	def := sched.DefaultHours()

	inRange := func(d exchange.Date) bool { return !d.Before(from) && !d.After(to) }

	out := base
	out.Holidays = []string{}
	for _, h := range base.Holidays {
		d, err := exchange.ParseDate(h)
		if err != nil || !inRange(d) {
			out.Holidays = append(out.Holidays, h)
		}
	}
	out.SpecialTradingDays = nil
	for _, sd := range base.SpecialTradingDays {
		d, err := exchange.ParseDate(sd.Date)
		if err != nil || !inRange(d) {
			out.SpecialTradingDays = append(out.SpecialTradingDays, sd)
		}
	}

	for d := from; !d.After(to); d = d.AddDays(1) {
		hours, isOpen := open[d]
		switch {
		case !isOpen && weekdays[d.Weekday()]:
			out.Holidays = append(out.Holidays, d.String())
			report.Holidays++
		case isOpen && !weekdays[d.Weekday()]:
			s.log.Warn("source reports an open day outside the trading week, skipping",
				"exchange", base.Name, "date", d.String())
		case isOpen && hours != def:
			out.SpecialTradingDays = append(out.SpecialTradingDays, exchange.SpecialDayConfig{
				Date:      d.String(),
				OpenTime:  hours.Open.String(),
				CloseTime: hours.Close.String(),
			})
			report.SpecialDays++
		}
	}

	sort.Strings(out.Holidays)
	sort.Slice(out.SpecialTradingDays, func(i, j int) bool {
		return out.SpecialTradingDays[i].Date < out.SpecialTradingDays[j].Date
	})

	if _, err := out.Build(); err != nil {
		return exchange.Config{}, report, err
	}
	s.log.Info("schedule synced", "exchange", base.Name, "holidays", report.Holidays,
		"special_days", report.SpecialDays)
	return out, report, nil
}
