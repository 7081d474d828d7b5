package pricing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
	domainpricing "roomstay/internal/domain/pricing"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/daterange"
)

// Resolver picks the discount in force for a room and prices stays with it.
type Resolver struct {
	Discounts domaindiscounts.Repository
	Logger    *slog.Logger
}

// CurrentDiscount returns the single discount covering asOf, or nil. More
// than one match means the non-overlap rule was broken in storage.
func (r Resolver) CurrentDiscount(ctx context.Context, roomID domaincatalog.RoomID, asOf time.Time) (*domaindiscounts.RoomDiscount, error) {
	matches, err := r.Discounts.ActiveOn(ctx, roomID, asOf)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, d := range matches {
		ids[i] = string(d.ID)
	}
	if r.Logger != nil {
		r.Logger.ErrorContext(ctx, "overlapping discounts stored for room",
			"room_id", roomID, "as_of", asOf.Format(time.DateOnly), "discount_ids", ids)
	}
	return nil, apperr.Newf(apperr.InvariantViolation,
		"pricing: %d discounts active for room %s: %s", len(matches), roomID, strings.Join(ids, ", "))
}

// Quote prices dr at the room's nightly rate less the discount current at asOf.
func (r Resolver) Quote(ctx context.Context, room *domaincatalog.Room, dr daterange.DateRange, asOf time.Time) (domainpricing.PriceBreakdown, error) {
	discount, err := r.CurrentDiscount(ctx, room.ID, asOf)
	if err != nil {
		return domainpricing.PriceBreakdown{}, err
	}
	price := domainpricing.PriceBreakdown{
		Nights:  dr.Nights(),
		Nightly: room.PricePerNight,
	}
	if discount != nil {
		price.Discount = &domainpricing.AppliedDiscount{
			DiscountID: string(discount.ID),
			Name:       discount.Name,
			Rate:       discount.Rate,
		}
	}
	if err := price.RecalculateTotal(); err != nil {
		return domainpricing.PriceBreakdown{}, apperr.Wrap(apperr.InvalidInput, "pricing: cannot price stay", err)
	}
	return price, nil
}
