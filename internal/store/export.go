package store

import (
	"context"
	"time"

	"tradecal/internal/calendar"
	"tradecal/internal/exchange"
)

// exportBatch bounds how many instants are buffered before a write.
const exportBatch = 10000

// ExportTradingTimes samples q over [start, end] and writes the grid to st.
// It returns the number of instants written.
func ExportTradingTimes(ctx context.Context, st TradingTimeStore, q calendar.Querier, start, end time.Time) (int, error) {
	seq, err := q.TradingTimes(start, end)
	if err != nil {
		return 0, err
	}

	s := q.Schedule()
	name := s.Name()
	batch := make([]TradingTime, 0, exportBatch)
	total := 0

	flush := func() error {
		if err := st.WriteTradingTimes(ctx, name, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for ts := range seq {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch = append(batch, TradingTime{
			Exchange: name,
			Time:     ts,
			Special:  s.IsSpecialDay(exchange.DateOf(ts)),
		})
		if len(batch) == exportBatch {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}
