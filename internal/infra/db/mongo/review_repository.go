package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domainreviews "roomstay/internal/domain/reviews"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(colReviews)}
}

func (r *ReviewRepository) ByRoomAndUser(ctx context.Context, roomID domaincatalog.RoomID, userID string) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"room_id": string(roomID), "user_id": userID}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toReview(), nil
}

// Save inserts a fresh review and compare-and-swaps a revised one on version.
// Losing the race to insert the first review of a (room, user) pair reports
// a concurrent update, so the retried command revises the winner's review.
func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := newReviewDocument(review)
	doc.Version = review.Version + 1
	if review.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domainbooking.ErrConcurrentUpdate
			}
			return err
		}
		review.Version = doc.Version
		return nil
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": review.Version}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	review.Version = doc.Version
	return nil
}

func (r *ReviewRepository) ListByRooms(ctx context.Context, roomIDs []domaincatalog.RoomID) ([]*domainreviews.Review, error) {
	if len(roomIDs) == 0 {
		return []*domainreviews.Review{}, nil
	}
	ids := make(bson.A, 0, len(roomIDs))
	for _, id := range roomIDs {
		ids = append(ids, string(id))
	}
	cur, err := r.col.Find(ctx, bson.M{"room_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toReview())
	}
	return out, nil
}

type reviewDocument struct {
	ID        string `bson:"_id"`
	RoomID    string `bson:"room_id"`
	UserID    string `bson:"user_id"`
	BookingID string `bson:"booking_id"`
	Rating    int    `bson:"rating"`
	Comment   string `bson:"comment,omitempty"`
	Visible   bool   `bson:"visible"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
	Version   int64  `bson:"version"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:        string(r.ID),
		RoomID:    string(r.RoomID),
		UserID:    r.UserID,
		BookingID: string(r.BookingID),
		Rating:    r.Rating,
		Comment:   r.Comment,
		Visible:   r.Visible,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
		Version:   r.Version,
	}
}

func (d reviewDocument) toReview() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		RoomID:    domaincatalog.RoomID(d.RoomID),
		UserID:    d.UserID,
		BookingID: domainbooking.BookingID(d.BookingID),
		Rating:    d.Rating,
		Comment:   d.Comment,
		Visible:   d.Visible,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
