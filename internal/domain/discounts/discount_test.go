package discounts

import (
	"errors"
	"testing"
	"time"

	"roomstay/internal/domain/shared/apperr"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPeriodOverlapIsClosed(t *testing.T) {
	a, _ := NewPeriod(day("2026-06-01"), day("2026-06-10"))
	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"shared end day", "2026-06-10", "2026-06-12", true},
		{"shared start day", "2026-05-25", "2026-06-01", true},
		{"inside", "2026-06-03", "2026-06-04", true},
		{"day after", "2026-06-11", "2026-06-20", false},
		{"day before", "2026-05-01", "2026-05-31", false},
	}
	for _, tc := range cases {
		b, err := NewPeriod(day(tc.start), day(tc.end))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := a.Overlaps(b); got != tc.want {
			t.Fatalf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPeriodCoversWholeEndDay(t *testing.T) {
	p, _ := NewPeriod(day("2026-06-01"), day("2026-06-01"))
	if !p.Covers(day("2026-06-01").Add(23 * time.Hour)) {
		t.Fatalf("single-day period should cover the whole day")
	}
	if p.Covers(day("2026-06-02")) {
		t.Fatalf("period should not cover the next day")
	}
}

func TestNewRoomDiscountValidation(t *testing.T) {
	base := NewParams{ID: "d", RoomID: "r", Name: "Summer", Start: day("2026-06-01"), End: day("2026-06-30"), Rate: 20}

	d, err := NewRoomDiscount(base)
	if err != nil {
		t.Fatalf("NewRoomDiscount: %v", err)
	}
	if len(d.PendingEvents()) != 1 {
		t.Fatalf("expected DiscountAdded event")
	}

	bad := base
	bad.Rate = 101
	if _, err := NewRoomDiscount(bad); !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("rate 101: expected InvalidInput, got %v", err)
	}

	bad = base
	bad.End = day("2026-05-01")
	_, err = NewRoomDiscount(bad)
	if !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("reversed period: expected InvalidInput, got %v", err)
	}
	if f := apperr.FieldsOf(err); len(f) != 1 || f[0].Field != "end_date" {
		t.Fatalf("unexpected violations %v", f)
	}

	bad = base
	bad.Rate = 0
	if _, err := NewRoomDiscount(bad); err != nil {
		t.Fatalf("rate 0 should be accepted: %v", err)
	}
}
