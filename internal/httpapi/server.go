package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tradecal/internal/calendar"
	"tradecal/internal/exchange"
	"tradecal/internal/metrics"
)

const (
	defaultLimit = 1000
	maxLimit     = 100000

	// instantHelp is appended to parameter errors.
	instantHelp = `want RFC 3339, local "YYYY-MM-DD HH:MM" or "YYYY-MM-DD"; ` +
		`the range is inclusive and a bare end date covers that whole day`
)

// CalendarServer serves the calendar HTTP API.
type CalendarServer struct {
	reg *calendar.Registry
	log *slog.Logger
}

// NewCalendarServer creates a new calendar HTTP server over reg.
func NewCalendarServer(reg *calendar.Registry, log *slog.Logger) *CalendarServer {
	return &CalendarServer{reg: reg, log: log}
}

// RegisterRoutes registers all API routes on the given mux. Instants without
// a zone are read in the exchange timezone. For trading-times, a bare
// "YYYY-MM-DD" end covers the whole day, so start=2024-01-03&end=2024-01-04
// returns the sessions of both days.
func (s *CalendarServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/exchanges", s.handleExchanges)
	mux.HandleFunc("GET /api/exchanges/{name}", s.handleExchange)
	mux.HandleFunc("GET /api/exchanges/{name}/trading-time", s.handleTradingTime)
	mux.HandleFunc("GET /api/exchanges/{name}/next", s.handleNext)
	mux.HandleFunc("GET /api/exchanges/{name}/trading-times", s.handleTradingTimes)
	mux.HandleFunc("GET /api/exchanges/{name}/hours", s.handleHours)
	mux.Handle("GET /metrics", metrics.Handler())
}

// Handler returns an http.Handler with CORS middleware.
func (s *CalendarServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorJSON{Error: msg})
}

// statusFor maps calendar errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, calendar.ErrUnknownExchange):
		return http.StatusNotFound
	case errors.Is(err, calendar.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, calendar.ErrNoTradingTime):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// querier resolves the {name} path value, writing a 404 when it is unknown.
func (s *CalendarServer) querier(w http.ResponseWriter, r *http.Request) (calendar.Querier, bool) {
	q, err := s.reg.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return q, true
}

// instantParam parses a required query parameter in the exchange timezone.
func instantParam(w http.ResponseWriter, r *http.Request, key string, loc *time.Location, rangeEnd bool) (time.Time, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		writeError(w, http.StatusBadRequest, "missing "+key+" parameter: "+instantHelp)
		return time.Time{}, false
	}
	var (
		t   time.Time
		err error
	)
	if rangeEnd {
		t, err = exchange.ParseRangeEnd(v, loc)
	} else {
		t, _, err = exchange.ParseInstant(v, loc)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, key+": "+err.Error()+": "+instantHelp)
		return time.Time{}, false
	}
	return t, true
}

func (s *CalendarServer) handleExchanges(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, ExchangesJSON{Exchanges: s.reg.Names()})
}

func (s *CalendarServer) handleExchange(w http.ResponseWriter, r *http.Request) {
	q, ok := s.querier(w, r)
	if !ok {
		return
	}
	writeJSON(w, q.Schedule().Config())
}

func (s *CalendarServer) handleTradingTime(w http.ResponseWriter, r *http.Request) {
	q, ok := s.querier(w, r)
	if !ok {
		return
	}
	loc := q.Schedule().Location()
	at, ok := instantParam(w, r, "at", loc, false)
	if !ok {
		return
	}
	writeJSON(w, TradingTimeJSON{
		Exchange: q.Schedule().Name(),
		At:       at.In(loc),
		Trading:  q.IsTradingTime(at),
	})
}

func (s *CalendarServer) handleNext(w http.ResponseWriter, r *http.Request) {
	q, ok := s.querier(w, r)
	if !ok {
		return
	}
	loc := q.Schedule().Location()
	after, ok := instantParam(w, r, "after", loc, false)
	if !ok {
		return
	}
	next, err := q.NextTradingTime(after)
	if err != nil {
		s.log.Warn("next trading time", "exchange", q.Schedule().Name(), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, NextJSON{
		Exchange: q.Schedule().Name(),
		After:    after.In(loc),
		Next:     next,
	})
}

func (s *CalendarServer) handleTradingTimes(w http.ResponseWriter, r *http.Request) {
	q, ok := s.querier(w, r)
	if !ok {
		return
	}
	loc := q.Schedule().Location()
	start, ok := instantParam(w, r, "start", loc, false)
	if !ok {
		return
	}
	end, ok := instantParam(w, r, "end", loc, true)
	if !ok {
		return
	}

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxLimit))
			return
		}
		limit = n
	}

	seq, err := q.TradingTimes(start, end)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := TradingTimesJSON{
		Exchange: q.Schedule().Name(),
		Start:    start.In(loc),
		End:      end.In(loc),
		Times:    []time.Time{},
	}
	for ts := range seq {
		if len(resp.Times) == limit {
			resp.Truncated = true
			break
		}
		resp.Times = append(resp.Times, ts)
	}
	resp.Count = len(resp.Times)
	writeJSON(w, resp)
}

func (s *CalendarServer) handleHours(w http.ResponseWriter, r *http.Request) {
	q, ok := s.querier(w, r)
	if !ok {
		return
	}
	d, err := exchange.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	writeJSON(w, hoursJSON(q, d))
}

func hoursJSON(q calendar.Querier, d exchange.Date) HoursJSON {
	info := calendar.Day(q, d)
	out := HoursJSON{
		Exchange:   q.Schedule().Name(),
		Date:       d.String(),
		TradingDay: info.TradingDay,
		Holiday:    info.Holiday,
		Special:    info.Special,
		OpenTime:   info.Hours.Open.String(),
		CloseTime:  info.Hours.Close.String(),
	}
	if info.TradingDay {
		loc := q.Schedule().Location()
		open, closeAt := d.At(info.Hours.Open, loc), d.At(info.Hours.Close, loc)
		out.Open, out.Close = &open, &closeAt
	}
	return out
}
