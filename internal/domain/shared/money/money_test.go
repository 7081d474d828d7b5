package money

import (
	"errors"
	"testing"
)

func TestPercentOff(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		percent float64
		want    int64
	}{
		{"no discount", 10000, 0, 10000},
		{"twenty percent", 10000, 20, 8000},
		{"full discount", 10000, 100, 0},
		{"rounds half up", 999, 50, 500},
		{"fractional rate", 10000, 12.5, 8750},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Must(tc.amount, "INR").PercentOff(tc.percent)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Amount != tc.want || got.Currency != "INR" {
				t.Fatalf("got %+v, want %d INR", got, tc.want)
			}
		})
	}
}

func TestPercentOffRejectsOutOfRange(t *testing.T) {
	for _, p := range []float64{-1, 100.5} {
		if _, err := Must(100, "INR").PercentOff(p); !errors.Is(err, ErrInvalidPercent) {
			t.Fatalf("percent %v: expected ErrInvalidPercent, got %v", p, err)
		}
	}
}

func TestAddCurrencyMismatch(t *testing.T) {
	if _, err := Must(1, "INR").Add(Must(1, "USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}
