package tradecal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradecal/internal/calendar"
	"tradecal/internal/exchange"
	"tradecal/internal/httpapi"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := exchange.Config{
		Name:        "NYSE",
		Timezone:    "America/New_York",
		OpenTime:    "09:30",
		CloseTime:   "16:00",
		TradingDays: []int{0, 1, 2, 3, 4},
		Holidays:    []string{"2024-01-01"},
	}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	reg := calendar.NewRegistry(nil)
	if err := reg.Add(s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewCalendarServer(reg, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstServer(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()
	ny, _ := time.LoadLocation("America/New_York")

	names, err := c.Exchanges(ctx)
	if err != nil || len(names) != 1 || names[0] != "NYSE" {
		t.Fatalf("Exchanges() = %v, %v", names, err)
	}

	ok, err := c.IsTradingTime(ctx, "NYSE", time.Date(2024, 1, 2, 10, 0, 0, 0, ny))
	if err != nil || !ok {
		t.Errorf("IsTradingTime() = %t, %v; want true", ok, err)
	}

	next, err := c.NextTradingTime(ctx, "NYSE", time.Date(2023, 12, 29, 17, 0, 0, 0, ny))
	if err != nil {
		t.Fatalf("NextTradingTime: %v", err)
	}
	if want := time.Date(2024, 1, 2, 9, 30, 0, 0, ny); !next.Equal(want) {
		t.Errorf("NextTradingTime() = %s, want %s", next, want)
	}

	times, truncated, err := c.TradingTimes(ctx, "NYSE",
		time.Date(2024, 1, 1, 0, 0, 0, 0, ny), time.Date(2024, 1, 31, 23, 0, 0, 0, ny), 5)
	if err != nil {
		t.Fatalf("TradingTimes: %v", err)
	}
	if len(times) != 5 || !truncated {
		t.Errorf("TradingTimes() = %d times truncated=%t, want 5 true", len(times), truncated)
	}

	h, err := c.Hours(ctx, "NYSE", "2024-01-01")
	if err != nil {
		t.Fatalf("Hours: %v", err)
	}
	if !h.Holiday || h.TradingDay {
		t.Errorf("Hours() = %+v, want holiday", h)
	}
}

func TestClientErrors(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL)

	_, err := c.IsTradingTime(context.Background(), "LSE", time.Now())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message == "" {
		t.Errorf("APIError = %+v", apiErr)
	}
}
