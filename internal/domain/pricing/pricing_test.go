package pricing

import (
	"errors"
	"testing"

	"roomstay/internal/domain/shared/money"
)

func TestRecalculateTotal(t *testing.T) {
	p := PriceBreakdown{Nights: 3, Nightly: money.Must(100, "INR")}
	if err := p.RecalculateTotal(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Total.Amount != 300 {
		t.Fatalf("total = %d, want 300", p.Total.Amount)
	}

	p.Discount = &AppliedDiscount{Name: "spring", Rate: 20}
	if err := p.RecalculateTotal(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Effective.Amount != 80 || p.Total.Amount != 240 {
		t.Fatalf("effective=%d total=%d, want 80/240", p.Effective.Amount, p.Total.Amount)
	}
}

func TestRecalculateTotalValidates(t *testing.T) {
	p := PriceBreakdown{Nights: 0, Nightly: money.Must(100, "INR")}
	if err := p.RecalculateTotal(); !errors.Is(err, ErrNightsInvalid) {
		t.Fatalf("expected ErrNightsInvalid, got %v", err)
	}
	p = PriceBreakdown{Nights: 1}
	if err := p.RecalculateTotal(); !errors.Is(err, ErrCurrencyUnset) {
		t.Fatalf("expected ErrCurrencyUnset, got %v", err)
	}
}

func TestCopyDetachesDiscount(t *testing.T) {
	p := PriceBreakdown{Nights: 1, Nightly: money.Must(100, "INR"), Discount: &AppliedDiscount{Rate: 10}}
	c := p.Copy()
	c.Discount.Rate = 50
	if p.Discount.Rate != 10 {
		t.Fatalf("copy shares discount pointer")
	}
}
