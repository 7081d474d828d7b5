package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "roomstay/internal/domain/booking"
	domainpricing "roomstay/internal/domain/pricing"
	"roomstay/internal/domain/shared/money"
)

const (
	colBookings     = "bookings"
	colRoomGuards   = "room_guards"
	colTransactions = "transactions"
	colDiscounts    = "room_discounts"
	colReviews      = "reviews"
	colRooms        = "catalog_rooms"
	colProperties   = "catalog_properties"
	colIdempotency  = "app_idempotency"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type appliedDiscountDocument struct {
	DiscountID string  `bson:"discount_id"`
	Name       string  `bson:"name"`
	Rate       float64 `bson:"rate"`
}

type priceDocument struct {
	Nights    int                      `bson:"nights"`
	Nightly   moneyDocument            `bson:"nightly"`
	Effective moneyDocument            `bson:"effective"`
	Discount  *appliedDiscountDocument `bson:"discount,omitempty"`
	Total     moneyDocument            `bson:"total"`
}

func newPriceDocument(p domainpricing.PriceBreakdown) priceDocument {
	doc := priceDocument{
		Nights:    p.Nights,
		Nightly:   newMoneyDocument(p.Nightly),
		Effective: newMoneyDocument(p.Effective),
		Total:     newMoneyDocument(p.Total),
	}
	if p.Discount != nil {
		doc.Discount = &appliedDiscountDocument{DiscountID: p.Discount.DiscountID, Name: p.Discount.Name, Rate: p.Discount.Rate}
	}
	return doc
}

func (d priceDocument) toBreakdown() domainpricing.PriceBreakdown {
	p := domainpricing.PriceBreakdown{
		Nights:    d.Nights,
		Nightly:   d.Nightly.toMoney(),
		Effective: d.Effective.toMoney(),
		Total:     d.Total.toMoney(),
	}
	if d.Discount != nil {
		p.Discount = &domainpricing.AppliedDiscount{DiscountID: d.Discount.DiscountID, Name: d.Discount.Name, Rate: d.Discount.Rate}
	}
	return p
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// bumpGuard writes the guard document for key inside the caller's session
// transaction. Two transactions guarding the same key both write it, so the
// later one aborts with a transient write conflict and is retried.
func bumpGuard(ctx context.Context, guards *mongo.Collection, key string) error {
	_, err := guards.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return domainbooking.ErrConcurrentUpdate
	}
	return err
}

func discountGuardKey(roomID string) string { return "discount:" + roomID }
