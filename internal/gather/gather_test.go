package gather

import (
	"testing"

	"tradecal/internal/exchange"
)

func TestDateRangeYears(t *testing.T) {
	r := DateRange{From: exchange.NewDate(2023, 11, 15), To: exchange.NewDate(2025, 2, 1)}
	got := r.Years()
	want := []DateRange{
		{exchange.NewDate(2023, 11, 15), exchange.NewDate(2023, 12, 31)},
		{exchange.NewDate(2024, 1, 1), exchange.NewDate(2024, 12, 31)},
		{exchange.NewDate(2025, 1, 1), exchange.NewDate(2025, 2, 1)},
	}
	if len(got) != len(want) {
		t.Fatalf("Years() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Years()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	empty := DateRange{From: exchange.NewDate(2024, 2, 1), To: exchange.NewDate(2024, 1, 1)}
	if n := len(empty.Years()); n != 0 {
		t.Errorf("reversed range produced %d chunks", n)
	}
}
