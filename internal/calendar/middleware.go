package calendar

import (
	"iter"
	"log/slog"
	"time"

	"tradecal/internal/metrics"
)

// Operation names used in logs and metrics.
const (
	OpIsTradingTime   = "is_trading_time"
	OpNextTradingTime = "next_trading_time"
	OpTradingTimes    = "trading_times"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

type loggedQuerier struct {
	Querier
	log *slog.Logger
}

// WithLogging returns a Querier that logs every query made through it.
// Successful queries are logged at debug level, failures at error level.
func WithLogging(q Querier, log *slog.Logger) Querier {
	return &loggedQuerier{
		Querier: q,
		log:     log.With("exchange", q.Schedule().Name()),
	}
}

func (l *loggedQuerier) IsTradingTime(t time.Time) bool {
	ok := l.Querier.IsTradingTime(t)
	l.log.Debug("is trading time", "at", t, "trading", ok)
	return ok
}

func (l *loggedQuerier) NextTradingTime(t time.Time) (time.Time, error) {
	next, err := l.Querier.NextTradingTime(t)
	if err != nil {
		l.log.Error("getting next trading time", "after", t, "error", err)
		return next, err
	}
	l.log.Debug("next trading time", "after", t, "next", next)
	return next, nil
}

func (l *loggedQuerier) TradingTimes(start, end time.Time) (iter.Seq[time.Time], error) {
	seq, err := l.Querier.TradingTimes(start, end)
	if err != nil {
		l.log.Error("getting trading times", "start", start, "end", end, "error", err)
		return nil, err
	}
	l.log.Debug("trading times", "start", start, "end", end)
	return seq, nil
}

// LoggedEngine decorates an Engine's stepping API with logging. Queries go
// through WithLogging.
type LoggedEngine struct {
	Querier
	engine *Engine
	log    *slog.Logger
}

// LogEngine wraps e so that queries, resets and steps are logged.
func LogEngine(e *Engine, log *slog.Logger) *LoggedEngine {
	return &LoggedEngine{
		Querier: WithLogging(e, log),
		engine:  e,
		log:     log.With("exchange", e.Schedule().Name()),
	}
}

// Reset forwards to Engine.Reset.
func (l *LoggedEngine) Reset(start, end time.Time) error {
	if err := l.engine.Reset(start, end); err != nil {
		l.log.Error("resetting calendar", "start", start, "end", end, "error", err)
		return err
	}
	l.log.Info("calendar reset", "start", l.engine.Start(), "end", l.engine.End())
	return nil
}

// Step forwards to Engine.Step.
func (l *LoggedEngine) Step() error {
	if err := l.engine.Step(); err != nil {
		l.log.Error("stepping calendar", "cursor", l.engine.CurrentTime(), "error", err)
		return err
	}
	if l.engine.IsFinished() {
		l.log.Info("calendar finished", "cursor", l.engine.CurrentTime())
	} else {
		l.log.Debug("calendar step", "cursor", l.engine.CurrentTime())
	}
	return nil
}

// CurrentTime forwards to Engine.CurrentTime.
func (l *LoggedEngine) CurrentTime() time.Time { return l.engine.CurrentTime() }

// IsFinished forwards to Engine.IsFinished.
func (l *LoggedEngine) IsFinished() bool { return l.engine.IsFinished() }

// Engine returns the wrapped engine.
func (l *LoggedEngine) Engine() *Engine { return l.engine }

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

type instrumentedQuerier struct {
	Querier
	name string
}

// WithMetrics returns a Querier that records Prometheus counters and
// latencies for every query.
func WithMetrics(q Querier) Querier {
	metrics.Init()
	return &instrumentedQuerier{Querier: q, name: q.Schedule().Name()}
}

func (m *instrumentedQuerier) observe(op string, began time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveQuery(m.name, op, result, time.Since(began))
}

func (m *instrumentedQuerier) IsTradingTime(t time.Time) bool {
	began := time.Now()
	ok := m.Querier.IsTradingTime(t)
	m.observe(OpIsTradingTime, began, nil)
	return ok
}

func (m *instrumentedQuerier) NextTradingTime(t time.Time) (time.Time, error) {
	began := time.Now()
	next, err := m.Querier.NextTradingTime(t)
	m.observe(OpNextTradingTime, began, err)
	return next, err
}

// TradingTimes records a failed call immediately. A successful call is
// recorded once per iteration of the returned sequence, timed from the start
// of that iteration until it ends or the consumer stops.
func (m *instrumentedQuerier) TradingTimes(start, end time.Time) (iter.Seq[time.Time], error) {
	began := time.Now()
	seq, err := m.Querier.TradingTimes(start, end)
	if err != nil {
		m.observe(OpTradingTimes, began, err)
		return nil, err
	}
	return func(yield func(time.Time) bool) {
		began := time.Now()
		defer m.observe(OpTradingTimes, began, nil)
		for ts := range seq {
			if !yield(ts) {
				return
			}
		}
	}, nil
}

var (
	_ Querier = (*loggedQuerier)(nil)
	_ Querier = (*instrumentedQuerier)(nil)
	_ Querier = (*LoggedEngine)(nil)
)
