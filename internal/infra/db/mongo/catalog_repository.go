package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincatalog "roomstay/internal/domain/catalog"
)

// CatalogRepository is the local projection of rooms and properties owned
// by the catalog service.
type CatalogRepository struct {
	rooms      *mongo.Collection
	properties *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{rooms: db.Collection(colRooms), properties: db.Collection(colProperties)}
}

func (r *CatalogRepository) Room(ctx context.Context, id domaincatalog.RoomID) (*domaincatalog.Room, error) {
	var doc roomDocument
	if err := r.rooms.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domaincatalog.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toRoom(), nil
}

func (r *CatalogRepository) Property(ctx context.Context, id domaincatalog.PropertyID) (*domaincatalog.Property, error) {
	var doc propertyDocument
	if err := r.properties.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domaincatalog.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toProperty(), nil
}

func (r *CatalogRepository) RoomsByOwner(ctx context.Context, ownerID string) ([]*domaincatalog.Room, error) {
	cur, err := r.properties.Find(ctx, bson.M{"owner_id": ownerID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var props []propertyDocument
	if err := cur.All(ctx, &props); err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return []*domaincatalog.Room{}, nil
	}
	ids := make(bson.A, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	cur, err = r.rooms.Find(ctx, bson.M{"property_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domaincatalog.Room, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toRoom())
	}
	return out, nil
}

// UpsertRoom ignores snapshots older than the stored one. A stale upsert
// misses the filter, tries to insert the existing _id and is dropped.
func (r *CatalogRepository) UpsertRoom(ctx context.Context, room *domaincatalog.Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	doc := newRoomDocument(room)
	return ignoreStale(r.rooms.ReplaceOne(ctx, newerThan(doc.ID, doc.UpdatedAt), doc, options.Replace().SetUpsert(true)))
}

func (r *CatalogRepository) UpsertProperty(ctx context.Context, property *domaincatalog.Property) error {
	if err := property.Validate(); err != nil {
		return err
	}
	doc := newPropertyDocument(property)
	return ignoreStale(r.properties.ReplaceOne(ctx, newerThan(doc.ID, doc.UpdatedAt), doc, options.Replace().SetUpsert(true)))
}

func newerThan(id string, updatedAt int64) bson.M {
	return bson.M{"_id": id, "updated_at": bson.M{"$lte": updatedAt}}
}

func ignoreStale(_ *mongo.UpdateResult, err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

type roomDocument struct {
	ID            string        `bson:"_id"`
	PropertyID    string        `bson:"property_id"`
	Name          string        `bson:"name"`
	RoomNumber    string        `bson:"room_number"`
	Capacity      int           `bson:"capacity"`
	PricePerNight moneyDocument `bson:"price_per_night"`
	Active        bool          `bson:"active"`
	UpdatedAt     int64         `bson:"updated_at"`
}

func newRoomDocument(r *domaincatalog.Room) roomDocument {
	return roomDocument{
		ID:            string(r.ID),
		PropertyID:    string(r.PropertyID),
		Name:          r.Name,
		RoomNumber:    r.RoomNumber,
		Capacity:      r.Capacity,
		PricePerNight: newMoneyDocument(r.PricePerNight),
		Active:        r.Active,
		UpdatedAt:     r.UpdatedAt.UnixMilli(),
	}
}

func (d roomDocument) toRoom() *domaincatalog.Room {
	return &domaincatalog.Room{
		ID:            domaincatalog.RoomID(d.ID),
		PropertyID:    domaincatalog.PropertyID(d.PropertyID),
		Name:          d.Name,
		RoomNumber:    d.RoomNumber,
		Capacity:      d.Capacity,
		PricePerNight: d.PricePerNight.toMoney(),
		Active:        d.Active,
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}

type propertyDocument struct {
	ID        string `bson:"_id"`
	OwnerID   string `bson:"owner_id"`
	Name      string `bson:"name"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newPropertyDocument(p *domaincatalog.Property) propertyDocument {
	return propertyDocument{ID: string(p.ID), OwnerID: p.OwnerID, Name: p.Name, UpdatedAt: p.UpdatedAt.UnixMilli()}
}

func (d propertyDocument) toProperty() *domaincatalog.Property {
	return &domaincatalog.Property{
		ID:        domaincatalog.PropertyID(d.ID),
		OwnerID:   d.OwnerID,
		Name:      d.Name,
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}

var (
	_ domaincatalog.Reader = (*CatalogRepository)(nil)
	_ domaincatalog.Writer = (*CatalogRepository)(nil)
)
