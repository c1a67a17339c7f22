package config

import (
	"errors"
	"testing"
	"time"

	"tradecal/internal/exchange"
)

const nyseJSON = `{
  "name": "NYSE",
  "timezone": "America/New_York",
  "open_time": "09:30",
  "close_time": "16:00",
  "trading_days": [0, 1, 2, 3, 4],
  "holidays": ["2024-01-01", "2024-07-04"],
  "special_trading_days": [
    {"date": "2024-11-29", "open_time": "09:30", "close_time": "13:00"}
  ]
}`

const adxYAML = `
name: ADX
timezone: Asia/Dubai
open_time: "10:00"
close_time: "14:00"
trading_days: [0, 1, 2, 3, 4]
holidays: ["2024-01-01"]
special_trading_days:
  - date: "2024-01-01"
    open_time: "10:00"
    close_time: "12:00"
`

func TestLoadExchangeJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "NYSE.json", nyseJSON)

	s, err := LoadExchange(path)
	if err != nil {
		t.Fatalf("LoadExchange() returned error: %v", err)
	}
	if s.Name() != "NYSE" {
		t.Errorf("Name() = %q, want %q", s.Name(), "NYSE")
	}
	if got := s.TradingHours(exchange.NewDate(2024, time.November, 29)).String(); got != "09:30-13:00" {
		t.Errorf("early close hours = %q, want %q", got, "09:30-13:00")
	}
	if !s.IsHoliday(exchange.NewDate(2024, time.July, 4)) {
		t.Error("2024-07-04 should be a holiday")
	}
}

func TestLoadExchangeYAMLConflict(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ADX.yaml", adxYAML)

	s, err := LoadExchange(path)
	if err != nil {
		t.Fatalf("LoadExchange() returned error: %v", err)
	}
	d := exchange.NewDate(2024, time.January, 1)
	if s.IsTradingDay(d) {
		t.Error("holiday listed as special day should not trade")
	}
	if n := len(s.Conflicts()); n != 1 {
		t.Errorf("Conflicts() = %d dates, want 1", n)
	}
}

func TestLoadExchangeInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "BAD.json", `{"name": "BAD", "timezone": "Mars/Olympus", "open_time": "09:00", "close_time": "17:00", "trading_days": [0], "holidays": []}`)

	_, err := LoadExchange(path)
	if !errors.Is(err, exchange.ErrConfig) {
		t.Fatalf("LoadExchange() error = %v, want ErrConfig", err)
	}
	var cerr *exchange.ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "timezone" {
		t.Errorf("ConfigError field = %+v, want timezone", cerr)
	}

	garbled := writeFile(t, dir, "GARBLED.yaml", "name: [unterminated\n")
	if _, err := LoadExchange(garbled); !errors.Is(err, exchange.ErrConfig) {
		t.Errorf("LoadExchange(garbled) error = %v, want ErrConfig", err)
	}
}

func TestLoadExchangeDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "NYSE.json", nyseJSON)
	writeFile(t, dir, "ADX.yml", adxYAML)
	writeFile(t, dir, "README.md", "not an exchange")

	got, err := LoadExchangeDir(dir)
	if err != nil {
		t.Fatalf("LoadExchangeDir() returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadExchangeDir() = %d exchanges, want 2", len(got))
	}
	if _, ok := got["ADX"]; !ok {
		t.Error("ADX missing")
	}

	writeFile(t, dir, "NYSE-copy.yaml", nyseJSON)
	if _, err := LoadExchangeDir(dir); err == nil {
		t.Error("duplicate exchange names should fail")
	}
}

func TestEncodeExchangeRoundTrip(t *testing.T) {
	c, err := DecodeExchange([]byte(nyseJSON))
	if err != nil {
		t.Fatalf("DecodeExchange: %v", err)
	}
	data, err := EncodeExchange(c)
	if err != nil {
		t.Fatalf("EncodeExchange: %v", err)
	}
	again, err := DecodeExchange(data)
	if err != nil {
		t.Fatalf("DecodeExchange(encoded): %v", err)
	}
	if again.Name != c.Name || len(again.Holidays) != 2 || len(again.SpecialTradingDays) != 1 {
		t.Errorf("round trip = %+v, want %+v", again, c)
	}
}
