// Package store persists exchange schedules and exported trading-time grids.
package store

import (
	"context"
	"errors"
	"time"

	"tradecal/internal/exchange"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ScheduleStore persists exchange configurations keyed by exchange name.
type ScheduleStore interface {
	// SaveSchedule validates and inserts or replaces the configuration.
	SaveSchedule(ctx context.Context, cfg exchange.Config) error

	// GetSchedule returns the stored configuration for name.
	GetSchedule(ctx context.Context, name string) (exchange.Config, error)

	// ListSchedules returns all stored exchange names in sorted order.
	ListSchedules(ctx context.Context) ([]string, error)

	// DeleteSchedule removes the configuration for name.
	DeleteSchedule(ctx context.Context, name string) error
}

// TradingTime is one sampled trading instant of an exchange.
type TradingTime struct {
	Exchange string
	Time     time.Time
	// Special marks instants on a day with overridden session hours.
	Special bool
}

// TradingTimeStore persists sampled trading-time grids.
type TradingTimeStore interface {
	// WriteTradingTimes merges times into the exchange's stored grid.
	WriteTradingTimes(ctx context.Context, exchange string, times []TradingTime) error

	// ReadTradingTimes returns stored instants within [start, end].
	ReadTradingTimes(ctx context.Context, exchange string, start, end time.Time) ([]TradingTime, error)

	// ListExchanges returns the exchanges that have stored grids.
	ListExchanges(ctx context.Context) ([]string, error)
}

// BuildAll loads and validates every schedule in st.
func BuildAll(ctx context.Context, st ScheduleStore) (map[string]*exchange.Schedule, error) {
	names, err := st.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*exchange.Schedule, len(names))
	for _, name := range names {
		cfg, err := st.GetSchedule(ctx, name)
		if err != nil {
			return nil, err
		}
		s, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}
