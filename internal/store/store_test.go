package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tradecal/internal/calendar"
	"tradecal/internal/exchange"
)

func adxConfig() exchange.Config {
	return exchange.Config{
		Name:        "ADX",
		Timezone:    "Asia/Dubai",
		OpenTime:    "10:00",
		CloseTime:   "14:00",
		TradingDays: []int{0, 1, 2, 3, 4},
		Holidays:    []string{"2024-01-01"},
		SpecialTradingDays: []exchange.SpecialDayConfig{
			{Date: "2024-07-01", OpenTime: "10:30", CloseTime: "13:30"},
		},
	}
}

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.yearPath("adx", 2024)
	want := filepath.Join("/data", "ADX", "trading-times", "2024.parquet")
	if got != want {
		t.Errorf("yearPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteRead(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()
	dubai, _ := time.LoadLocation("Asia/Dubai")

	times := []TradingTime{
		{Exchange: "ADX", Time: time.Date(2024, 1, 2, 10, 0, 0, 0, dubai)},
		{Exchange: "ADX", Time: time.Date(2024, 1, 3, 10, 0, 0, 0, dubai)},
		{Exchange: "ADX", Time: time.Date(2025, 1, 2, 10, 0, 0, 0, dubai), Special: true},
	}
	if err := ps.WriteTradingTimes(ctx, "ADX", times); err != nil {
		t.Fatalf("WriteTradingTimes: %v", err)
	}

	got, err := ps.ReadTradingTimes(ctx, "ADX",
		time.Date(2024, 1, 1, 0, 0, 0, 0, dubai),
		time.Date(2025, 12, 31, 0, 0, 0, 0, dubai))
	if err != nil {
		t.Fatalf("ReadTradingTimes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadTradingTimes returned %d times, want 3", len(got))
	}
	for i, tt := range got {
		if !tt.Time.Equal(times[i].Time) {
			t.Errorf("times[%d] = %s, want %s", i, tt.Time, times[i].Time)
		}
	}
	if !got[2].Special {
		t.Error("times[2].Special = false, want true")
	}

	// Range filter.
	got, err = ps.ReadTradingTimes(ctx, "ADX",
		time.Date(2024, 1, 3, 0, 0, 0, 0, dubai),
		time.Date(2024, 1, 3, 23, 0, 0, 0, dubai))
	if err != nil {
		t.Fatalf("ReadTradingTimes: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("filtered read returned %d times, want 1", len(got))
	}

	names, err := ps.ListExchanges(ctx)
	if err != nil {
		t.Fatalf("ListExchanges: %v", err)
	}
	if len(names) != 1 || names[0] != "ADX" {
		t.Errorf("ListExchanges = %v, want [ADX]", names)
	}
}

func TestParquetStoreMergeDedup(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	first := []TradingTime{{Exchange: "X", Time: ts}, {Exchange: "X", Time: ts.Add(time.Hour)}}
	if err := ps.WriteTradingTimes(ctx, "X", first); err != nil {
		t.Fatalf("WriteTradingTimes: %v", err)
	}
	second := []TradingTime{{Exchange: "X", Time: ts.Add(time.Hour), Special: true}, {Exchange: "X", Time: ts.Add(2 * time.Hour)}}
	if err := ps.WriteTradingTimes(ctx, "X", second); err != nil {
		t.Fatalf("WriteTradingTimes: %v", err)
	}

	got, err := ps.ReadTradingTimes(ctx, "X", ts, ts.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ReadTradingTimes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("merged %d times, want 3", len(got))
	}
	if !got[1].Special {
		t.Error("incoming record should replace the existing one")
	}
}

func TestParquetStoreEmpty(t *testing.T) {
	ps := NewParquetStore(filepath.Join(t.TempDir(), "missing"))
	ctx := context.Background()

	if err := ps.WriteTradingTimes(ctx, "X", nil); err != nil {
		t.Errorf("WriteTradingTimes(nil) = %v", err)
	}
	names, err := ps.ListExchanges(ctx)
	if err != nil || names != nil {
		t.Errorf("ListExchanges on missing dir = %v, %v", names, err)
	}
}

func TestExportTradingTimes(t *testing.T) {
	s, err := adxConfig().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ev, err := calendar.NewEvaluator(s, calendar.WithFrequency(time.Hour))
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	loc := s.Location()

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 7, 2, 23, 59, 0, 0, loc)
	n, err := ExportTradingTimes(ctx, ps, ev, start, end)
	if err != nil {
		t.Fatalf("ExportTradingTimes: %v", err)
	}
	// 10:30, 11:30, 12:30 on the special day plus 10..13 on 2 July.
	if n != 7 {
		t.Fatalf("exported %d instants, want 7", n)
	}

	got, err := ps.ReadTradingTimes(ctx, "ADX", start, end)
	if err != nil {
		t.Fatalf("ReadTradingTimes: %v", err)
	}
	if len(got) != 7 || !got[0].Special || got[6].Special {
		t.Errorf("read back %+v", got)
	}

	if _, err := ExportTradingTimes(ctx, ps, ev, end, start); !errors.Is(err, calendar.ErrInvalidRange) {
		t.Errorf("reversed range error = %v, want ErrInvalidRange", err)
	}
}

func TestSQLiteStoreSchedules(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tradecal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	if err := st.SaveSchedule(ctx, adxConfig()); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}
	nyse := exchange.Config{
		Name:        "NYSE",
		Timezone:    "America/New_York",
		OpenTime:    "09:30",
		CloseTime:   "16:00",
		TradingDays: []int{0, 1, 2, 3, 4},
		Holidays:    []string{},
	}
	if err := st.SaveSchedule(ctx, nyse); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}

	got, err := st.GetSchedule(ctx, "ADX")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if got.Timezone != "Asia/Dubai" || len(got.SpecialTradingDays) != 1 {
		t.Errorf("GetSchedule = %+v", got)
	}

	// Replace.
	updated := adxConfig()
	updated.CloseTime = "15:00"
	if err := st.SaveSchedule(ctx, updated); err != nil {
		t.Fatalf("SaveSchedule(update): %v", err)
	}
	got, _ = st.GetSchedule(ctx, "ADX")
	if got.CloseTime != "15:00" {
		t.Errorf("CloseTime = %q, want %q", got.CloseTime, "15:00")
	}

	names, err := st.ListSchedules(ctx)
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(names) != 2 || names[0] != "ADX" || names[1] != "NYSE" {
		t.Errorf("ListSchedules = %v, want [ADX NYSE]", names)
	}

	all, err := BuildAll(ctx, st)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(all) != 2 || all["NYSE"].Location().String() != "America/New_York" {
		t.Errorf("BuildAll = %v", all)
	}

	if err := st.DeleteSchedule(ctx, "NYSE"); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if _, err := st.GetSchedule(ctx, "NYSE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSchedule after delete = %v, want ErrNotFound", err)
	}
	if err := st.DeleteSchedule(ctx, "NYSE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSchedule = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreRejectsInvalid(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tradecal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	bad := adxConfig()
	bad.OpenTime = "25:00"
	err = st.SaveSchedule(context.Background(), bad)
	if !errors.Is(err, exchange.ErrConfig) {
		t.Errorf("SaveSchedule(invalid) = %v, want ErrConfig", err)
	}
}
