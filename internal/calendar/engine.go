package calendar

import (
	"errors"
	"fmt"
	"time"

	"tradecal/internal/exchange"
)

// Engine is a trading calendar over an inclusive [start, end] range with a
// cursor for step-wise iteration. The cursor makes an Engine stateful; use
// one Engine per consumer. The schedule it reads is shared and never
// modified.
type Engine struct {
	*Evaluator

	start    time.Time
	end      time.Time
	cursor   time.Time
	finished bool
}

// New creates an Engine over [start, end] with its cursor at start.
func New(s *exchange.Schedule, start, end time.Time, opts ...Option) (*Engine, error) {
	ev, err := NewEvaluator(s, opts...)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, rangeErr(start, end)
	}
	return &Engine{
		Evaluator: ev,
		start:     start,
		end:       end,
		cursor:    start,
	}, nil
}

func rangeErr(start, end time.Time) error {
	return fmt.Errorf("%w: end %s before start %s",
		ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
}

// Start returns the inclusive start of the range.
func (e *Engine) Start() time.Time { return e.start }

// End returns the inclusive end of the range.
func (e *Engine) End() time.Time { return e.end }

// Reset replaces the range bounds and rewinds the cursor to the start. A
// zero start or end keeps the current bound. On error the engine is left
// unchanged.
func (e *Engine) Reset(start, end time.Time) error {
	if start.IsZero() {
		start = e.start
	}
	if end.IsZero() {
		end = e.end
	}
	if end.Before(start) {
		return rangeErr(start, end)
	}
	e.start, e.end = start, end
	e.cursor = start
	e.finished = false
	return nil
}

// Step advances the cursor to the next sampled trading instant. When none is
// left within the range the engine becomes finished and the cursor keeps its
// last position. Stepping a finished engine returns ErrFinished.
func (e *Engine) Step() error {
	if e.finished {
		return ErrFinished
	}
	next, err := e.nextSample(e.cursor)
	if err != nil {
		if errors.Is(err, ErrNoTradingTime) {
			e.finished = true
			return nil
		}
		return err
	}
	if next.After(e.end) {
		e.finished = true
		return nil
	}
	e.cursor = next
	return nil
}

// CurrentTime returns the cursor.
func (e *Engine) CurrentTime() time.Time { return e.cursor }

// IsFinished reports whether the cursor has run past the end of the range.
func (e *Engine) IsFinished() bool { return e.finished }

func (e *Engine) String() string {
	return fmt.Sprintf("Calendar(%s, %s~%s, cursor=%s, finished=%t)",
		e.schedule.Name(),
		e.start.Format(time.RFC3339),
		e.end.Format(time.RFC3339),
		e.cursor.Format(time.RFC3339),
		e.finished)
}
