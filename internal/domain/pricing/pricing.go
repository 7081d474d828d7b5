package pricing

import (
	"errors"

	"roomstay/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
	ErrNightsInvalid = errors.New("pricing: nights must be positive")
)

// AppliedDiscount records the promotional rate a quote was computed with.
type AppliedDiscount struct {
	DiscountID string
	Name       string
	Rate       float64
}

// PriceBreakdown is the quote frozen onto a booking at admission time.
type PriceBreakdown struct {
	Nights    int
	Nightly   money.Money
	Effective money.Money
	Discount  *AppliedDiscount
	Total     money.Money
}

func (p *PriceBreakdown) Validate() error {
	if p.Nightly.Currency == "" {
		return ErrCurrencyUnset
	}
	if p.Nights <= 0 {
		return ErrNightsInvalid
	}
	return nil
}

// RecalculateTotal derives the effective nightly price and the total from
// the base rate and the applied discount, if any.
func (p *PriceBreakdown) RecalculateTotal() error {
	if err := p.Validate(); err != nil {
		return err
	}
	effective := p.Nightly
	if p.Discount != nil {
		reduced, err := p.Nightly.PercentOff(p.Discount.Rate)
		if err != nil {
			return err
		}
		effective = reduced
	}
	p.Effective = effective
	p.Total = effective.Multiply(int64(p.Nights))
	return nil
}

func (p PriceBreakdown) Copy() PriceBreakdown {
	clone := p
	if p.Discount != nil {
		d := *p.Discount
		clone.Discount = &d
	}
	return clone
}
