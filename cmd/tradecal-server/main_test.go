package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"tradecal/internal/config"
	"tradecal/internal/exchange"
	"tradecal/internal/store"
)

func TestLoadSchedules(t *testing.T) {
	dir := t.TempDir()
	exDir := filepath.Join(dir, "exchanges")
	if err := os.MkdirAll(exDir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := `{"name": "ADX", "timezone": "Asia/Dubai", "open_time": "10:00", "close_time": "14:00",
"trading_days": [0, 1, 2, 3, 4], "holidays": []}`
	if err := os.WriteFile(filepath.Join(exDir, "ADX.json"), []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Calendar.ExchangeDir = exDir
	cfg.Storage.SQLitePath = filepath.Join(dir, "tradecal.db")

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	// The registry copy closes at 13:00 and must win over the file.
	if err := st.SaveSchedule(context.Background(), exchange.Config{
		Name: "ADX", Timezone: "Asia/Dubai", OpenTime: "10:00", CloseTime: "13:00",
		TradingDays: []int{0, 1, 2, 3, 4}, Holidays: []string{},
	}); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}
	st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	got, err := loadSchedules(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("loadSchedules: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loadSchedules returned %d schedules, want 1", len(got))
	}
	if h := got["ADX"].DefaultHours().String(); h != "10:00-13:00" {
		t.Errorf("ADX hours = %s, want registry copy 10:00-13:00", h)
	}

	cfg.Calendar.Exchanges = []string{"NYSE"}
	if _, err := loadSchedules(context.Background(), cfg, logger); err == nil {
		t.Error("missing configured exchange should fail")
	}
}
