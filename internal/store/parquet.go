package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ TradingTimeStore = (*ParquetStore)(nil)

// ParquetStore implements TradingTimeStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// TradingTimeRecord is the Parquet schema for one sampled trading instant.
type TradingTimeRecord struct {
	Exchange  string `parquet:"exchange"`
	Timestamp int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Date      string `parquet:"date"`                             // exchange-local YYYY-MM-DD
	Special   bool   `parquet:"special"`
}

// WriteTradingTimes writes instants to one Parquet file per exchange-local
// year, merging with what is already stored:
//
//	<DataDir>/<EXCHANGE>/trading-times/<YYYY>.parquet
func (s *ParquetStore) WriteTradingTimes(_ context.Context, exchange string, times []TradingTime) error {
	if len(times) == 0 {
		return nil
	}

	groups := make(map[int][]TradingTimeRecord)
	for _, tt := range times {
		year := tt.Time.Year()
		groups[year] = append(groups[year], TradingTimeRecord{
			Exchange:  exchange,
			Timestamp: tt.Time.UnixMilli(),
			Date:      tt.Time.Format("2006-01-02"),
			Special:   tt.Special,
		})
	}

	for year, records := range groups {
		path := s.yearPath(exchange, year)

		existing, _ := readParquetFile[TradingTimeRecord](path)
		merged := mergeTradingTimeRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing trading times for %s/%d: %w", exchange, year, err)
		}
	}
	return nil
}

// ReadTradingTimes reads stored instants within [start, end]. Results are
// sorted and expressed in start's location.
func (s *ParquetStore) ReadTradingTimes(_ context.Context, exchange string, start, end time.Time) ([]TradingTime, error) {
	loc := start.Location()
	var out []TradingTime
	// Exchange-local years can differ from start's year by one at the edges.
	for year := start.Year() - 1; year <= end.Year()+1; year++ {
		records, err := readParquetFile[TradingTimeRecord](s.yearPath(exchange, year))
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if ts.Before(start) || ts.After(end) {
				continue
			}
			out = append(out, TradingTime{
				Exchange: r.Exchange,
				Time:     ts.In(loc),
				Special:  r.Special,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// ListExchanges lists the exchanges that have a trading-times directory.
func (s *ParquetStore) ListExchanges(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.DataDir, e.Name(), "trading-times")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// yearPath returns the filesystem path for one year of an exchange's grid.
// Layout: <dataDir>/<EXCHANGE>/trading-times/<YYYY>.parquet
func (s *ParquetStore) yearPath(exchange string, year int) string {
	return filepath.Join(s.DataDir, strings.ToUpper(exchange), "trading-times", strconv.Itoa(year)+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeTradingTimeRecords deduplicates records by timestamp, preferring
// incoming records. Results are sorted by timestamp.
func mergeTradingTimeRecords(existing, incoming []TradingTimeRecord) []TradingTimeRecord {
	seen := make(map[int64]TradingTimeRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]TradingTimeRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
