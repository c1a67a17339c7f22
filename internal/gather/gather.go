// Package gather defines the jobs that pull schedule data from upstream
// sources into the local schedule registry.
package gather

import (
	"context"

	"tradecal/internal/exchange"
)

// Gatherer is the interface for all data gathering jobs.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run performs one gathering pass. It returns early if ctx is cancelled.
	Run(ctx context.Context) error
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From exchange.Date
	To   exchange.Date
}

// Years splits r into per-calendar-year chunks.
func (r DateRange) Years() []DateRange {
	var out []DateRange
	for from := r.From; !from.After(r.To); {
		to := exchange.NewDate(from.Year, 12, 31)
		if to.After(r.To) {
			to = r.To
		}
		out = append(out, DateRange{From: from, To: to})
		from = to.AddDays(1)
	}
	return out
}
