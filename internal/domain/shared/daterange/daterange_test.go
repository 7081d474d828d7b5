package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsEmptyOrInvertedRanges(t *testing.T) {
	in := date(2026, 3, 10)
	if _, err := New(in, in); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("equal bounds: expected ErrInvalidRange, got %v", err)
	}
	if _, err := New(in, in.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted bounds: expected ErrInvalidRange, got %v", err)
	}
	if _, err := New(time.Time{}, in); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("zero checkin: expected ErrInvalidRange, got %v", err)
	}
}

func TestNightsRoundsUp(t *testing.T) {
	in := date(2026, 3, 10)
	cases := []struct {
		out  time.Time
		want int
	}{
		{in.AddDate(0, 0, 3), 3},
		{in.Add(26 * time.Hour), 2},
		{in.Add(time.Hour), 1},
	}
	for _, tc := range cases {
		dr, err := New(in, tc.out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := dr.Nights(); got != tc.want {
			t.Fatalf("Nights(%s..%s) = %d, want %d", in, tc.out, got, tc.want)
		}
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := DateRange{CheckIn: date(2026, 3, 10), CheckOut: date(2026, 3, 13)}
	adjacent := DateRange{CheckIn: date(2026, 3, 13), CheckOut: date(2026, 3, 15)}
	inside := DateRange{CheckIn: date(2026, 3, 11), CheckOut: date(2026, 3, 12)}
	straddle := DateRange{CheckIn: date(2026, 3, 9), CheckOut: date(2026, 3, 11)}

	if a.Overlaps(adjacent) || adjacent.Overlaps(a) {
		t.Fatalf("adjacent ranges must not overlap")
	}
	if !a.Overlaps(inside) || !inside.Overlaps(a) {
		t.Fatalf("nested ranges must overlap")
	}
	if !a.Overlaps(straddle) {
		t.Fatalf("straddling ranges must overlap")
	}
}
