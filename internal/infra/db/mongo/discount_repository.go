package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
)

type DiscountRepository struct {
	col    *mongo.Collection
	guards *mongo.Collection
}

func NewDiscountRepository(db *mongo.Database) *DiscountRepository {
	return &DiscountRepository{col: db.Collection(colDiscounts), guards: db.Collection(colRoomGuards)}
}

// Save bumps the room's discount guard before inserting, so two processes
// adding discounts to one room cannot both commit after an empty overlap
// check.
func (r *DiscountRepository) Save(ctx context.Context, d *domaindiscounts.RoomDiscount) error {
	if err := bumpGuard(ctx, r.guards, discountGuardKey(string(d.RoomID))); err != nil {
		return err
	}
	_, err := r.col.InsertOne(ctx, newDiscountDocument(d))
	return err
}

// Overlapping matches closed periods: a shared boundary day overlaps.
func (r *DiscountRepository) Overlapping(ctx context.Context, roomID domaincatalog.RoomID, period domaindiscounts.Period) ([]*domaindiscounts.RoomDiscount, error) {
	return r.find(ctx, bson.M{
		"room_id":    string(roomID),
		"start_date": bson.M{"$lte": period.End.UnixMilli()},
		"end_date":   bson.M{"$gte": period.Start.UnixMilli()},
	}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *DiscountRepository) ActiveOn(ctx context.Context, roomID domaincatalog.RoomID, t time.Time) ([]*domaindiscounts.RoomDiscount, error) {
	day := domaindiscounts.Day(t).UnixMilli()
	return r.find(ctx, bson.M{
		"room_id":    string(roomID),
		"start_date": bson.M{"$lte": day},
		"end_date":   bson.M{"$gte": day},
	}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *DiscountRepository) ListByRooms(ctx context.Context, roomIDs []domaincatalog.RoomID) ([]*domaindiscounts.RoomDiscount, error) {
	if len(roomIDs) == 0 {
		return []*domaindiscounts.RoomDiscount{}, nil
	}
	ids := make(bson.A, 0, len(roomIDs))
	for _, id := range roomIDs {
		ids = append(ids, string(id))
	}
	return r.find(ctx, bson.M{"room_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: 1}}))
}

func (r *DiscountRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domaindiscounts.RoomDiscount, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []discountDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domaindiscounts.RoomDiscount, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDiscount())
	}
	return out, nil
}

type discountDocument struct {
	ID        string  `bson:"_id"`
	RoomID    string  `bson:"room_id"`
	Name      string  `bson:"name"`
	StartDate int64   `bson:"start_date"`
	EndDate   int64   `bson:"end_date"`
	Rate      float64 `bson:"rate"`
	CreatedAt int64   `bson:"created_at"`
}

func newDiscountDocument(d *domaindiscounts.RoomDiscount) discountDocument {
	return discountDocument{
		ID:        string(d.ID),
		RoomID:    string(d.RoomID),
		Name:      d.Name,
		StartDate: d.Period.Start.UnixMilli(),
		EndDate:   d.Period.End.UnixMilli(),
		Rate:      d.Rate,
		CreatedAt: d.CreatedAt.UnixMilli(),
	}
}

func (d discountDocument) toDiscount() *domaindiscounts.RoomDiscount {
	return &domaindiscounts.RoomDiscount{
		ID:        domaindiscounts.DiscountID(d.ID),
		RoomID:    domaincatalog.RoomID(d.RoomID),
		Name:      d.Name,
		Period:    domaindiscounts.Period{Start: timestampToTime(d.StartDate), End: timestampToTime(d.EndDate)},
		Rate:      d.Rate,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

var _ domaindiscounts.Repository = (*DiscountRepository)(nil)
