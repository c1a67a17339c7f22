// Package calendar resolves instants against an exchange schedule: point
// queries (is this a trading time, when is the next one), sampled range
// queries, and a cursor that steps through the trading instants of a date
// range. Nothing in this package performs I/O or logging; see WithLogging
// and WithMetrics for call-boundary decoration.
package calendar

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"tradecal/internal/exchange"
)

const (
	// DefaultFrequency is the sampling interval used when none is given.
	DefaultFrequency = 24 * time.Hour

	// DefaultSearchHorizonDays bounds the forward search of
	// NextTradingTime.
	DefaultSearchHorizonDays = 400
)

var (
	// ErrInvalidRange is returned for an end before its start or a
	// non-positive sampling frequency.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrNoTradingTime is returned when no trading instant exists within
	// the search horizon.
	ErrNoTradingTime = errors.New("no trading time found")

	// ErrFinished is returned by Step once the engine has run past its
	// range.
	ErrFinished = errors.New("calendar finished")
)

// Querier answers stateless point and range queries for one exchange.
type Querier interface {
	Schedule() *exchange.Schedule
	IsTradingTime(t time.Time) bool
	NextTradingTime(t time.Time) (time.Time, error)
	TradingTimes(start, end time.Time) (iter.Seq[time.Time], error)
}

// Option configures an Evaluator or Engine.
type Option func(*Evaluator)

// WithFrequency sets the sampling interval used by TradingTimes and Step.
func WithFrequency(d time.Duration) Option {
	return func(e *Evaluator) { e.frequency = d }
}

// WithSearchHorizon sets how many calendar days NextTradingTime searches.
func WithSearchHorizon(days int) Option {
	return func(e *Evaluator) { e.horizonDays = days }
}

// Evaluator is the stateless part of a trading calendar. It is safe for
// concurrent use.
type Evaluator struct {
	schedule    *exchange.Schedule
	frequency   time.Duration
	horizonDays int
}

var _ Querier = (*Evaluator)(nil)

// NewEvaluator creates an Evaluator over s.
func NewEvaluator(s *exchange.Schedule, opts ...Option) (*Evaluator, error) {
	if s == nil {
		return nil, errors.New("calendar: nil schedule")
	}
	e := &Evaluator{
		schedule:    s,
		frequency:   DefaultFrequency,
		horizonDays: DefaultSearchHorizonDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.frequency <= 0 {
		return nil, fmt.Errorf("%w: frequency %v must be positive", ErrInvalidRange, e.frequency)
	}
	if e.horizonDays <= 0 {
		e.horizonDays = DefaultSearchHorizonDays
	}
	return e, nil
}

// Schedule returns the underlying exchange schedule.
func (e *Evaluator) Schedule() *exchange.Schedule { return e.schedule }

// Frequency returns the sampling interval.
func (e *Evaluator) Frequency() time.Duration { return e.frequency }

// ExchangeTradingHours returns the exchange's default session hours.
func (e *Evaluator) ExchangeTradingHours() exchange.Hours { return e.schedule.DefaultHours() }

// ExchangeTimezone returns the exchange's timezone.
func (e *Evaluator) ExchangeTimezone() *time.Location { return e.schedule.Location() }

// session returns the open and close instants of the session on d.
func (e *Evaluator) session(d exchange.Date) (open, closeAt time.Time) {
	h := e.schedule.TradingHours(d)
	loc := e.schedule.Location()
	return d.At(h.Open, loc), d.At(h.Close, loc)
}

// IsTradingTime reports whether t, seen in the exchange timezone, falls on a
// trading day within [open, close) of that day's hours. The range of an
// Engine is not consulted.
func (e *Evaluator) IsTradingTime(t time.Time) bool {
	lt := t.In(e.schedule.Location())
	d := exchange.DateOf(lt)
	if !e.schedule.IsTradingDay(d) {
		return false
	}
	return e.schedule.TradingHours(d).Contains(exchange.OffsetOf(lt))
}

// NextTradingTime returns the earliest session instant strictly after t,
// searching forward day by day. On a trading day that has not closed yet the
// candidate is max(t, open); inside an open session that candidate is t
// itself, so the next session's open is returned instead. The result is in
// the exchange timezone.
func (e *Evaluator) NextTradingTime(t time.Time) (time.Time, error) {
	lt := t.In(e.schedule.Location())
	d := exchange.DateOf(lt)

	for i := 0; i <= e.horizonDays; i++ {
		if e.schedule.IsTradingDay(d) {
			open, closeAt := e.session(d)
			candidate := open
			if lt.After(open) {
				candidate = lt
			}
			if candidate.After(lt) && candidate.Before(closeAt) {
				return candidate, nil
			}
		}
		d = d.AddDays(1)
	}

	return time.Time{}, fmt.Errorf("%w: %s after %s within %d days",
		ErrNoTradingTime, e.schedule.Name(), lt.Format(time.RFC3339), e.horizonDays)
}

// TradingTimes returns the sampled trading instants in [start, end]. For
// each trading day the samples are open, open+frequency, ... up to but
// excluding close, so every element satisfies IsTradingTime. The sequence is
// lazy, strictly increasing and can be ranged over more than once.
func (e *Evaluator) TradingTimes(start, end time.Time) (iter.Seq[time.Time], error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	loc := e.schedule.Location()
	ls, le := start.In(loc), end.In(loc)
	first, last := exchange.DateOf(ls), exchange.DateOf(le)

	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = d.AddDays(1) {
			if !e.schedule.IsTradingDay(d) {
				continue
			}
			open, closeAt := e.session(d)
			for ts := open; ts.Before(closeAt); ts = ts.Add(e.frequency) {
				if ts.Before(ls) {
					continue
				}
				if ts.After(le) {
					return
				}
				if !yield(ts) {
					return
				}
			}
		}
	}, nil
}

// nextSample returns the next grid instant after c: the following
// open+k*frequency point of the current session, or the next session's open.
func (e *Evaluator) nextSample(c time.Time) (time.Time, error) {
	lc := c.In(e.schedule.Location())
	if e.IsTradingTime(lc) {
		open, closeAt := e.session(exchange.DateOf(lc))
		k := lc.Sub(open)/e.frequency + 1
		if candidate := open.Add(k * e.frequency); candidate.Before(closeAt) {
			return candidate, nil
		}
	}
	return e.NextTradingTime(lc)
}
