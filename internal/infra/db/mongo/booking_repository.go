package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/daterange"
)

var activeStatuses = bson.A{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}

type BookingRepository struct {
	col    *mongo.Collection
	guards *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(colBookings), guards: db.Collection(colRoomGuards)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Create bumps the room guard before inserting. Two transactions admitting
// into the same room both write the guard, so the later one aborts with a
// write conflict and is retried against the committed booking.
func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	if err := bumpGuard(ctx, r.guards, string(b.RoomID)); err != nil {
		return err
	}
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ActiveOverlapping(ctx context.Context, roomID domaincatalog.RoomID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"room_id":         string(roomID),
		"status":          bson.M{"$in": activeStatuses},
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}}))
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID              string        `bson:"_id"`
	RoomID          string        `bson:"room_id"`
	PropertyID      string        `bson:"property_id"`
	GuestID         string        `bson:"guest_id"`
	Range           rangeDocument `bson:"range"`
	Guests          int           `bson:"guests"`
	Price           priceDocument `bson:"price"`
	Status          string        `bson:"status"`
	PaymentStatus   string        `bson:"payment_status"`
	PaymentMethod   string        `bson:"payment_method,omitempty"`
	SpecialRequests string        `bson:"special_requests,omitempty"`
	CancelReason    string        `bson:"cancel_reason,omitempty"`
	InvoiceID       string        `bson:"invoice_id,omitempty"`
	CreatedAt       int64         `bson:"created_at"`
	UpdatedAt       int64         `bson:"updated_at"`
	Version         int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		RoomID:          string(b.RoomID),
		PropertyID:      string(b.PropertyID),
		GuestID:         b.GuestID,
		Range:           rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:          b.Guests,
		Price:           newPriceDocument(b.Price),
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		PaymentMethod:   b.PaymentMethod,
		SpecialRequests: b.SpecialRequests,
		CancelReason:    b.CancelReason,
		InvoiceID:       b.InvoiceID,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		RoomID:          domaincatalog.RoomID(d.RoomID),
		PropertyID:      domaincatalog.PropertyID(d.PropertyID),
		GuestID:         d.GuestID,
		Range:           daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:          d.Guests,
		Price:           d.Price.toBreakdown(),
		Status:          domainbooking.Status(d.Status),
		PaymentStatus:   domainbooking.PaymentStatus(d.PaymentStatus),
		PaymentMethod:   d.PaymentMethod,
		SpecialRequests: d.SpecialRequests,
		CancelReason:    d.CancelReason,
		InvoiceID:       d.InvoiceID,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
