package catalog

import (
	"context"
	"strings"
	"time"

	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/money"
)

var (
	ErrRoomNotFound     = apperr.New(apperr.NotFound, "catalog: room not found")
	ErrPropertyNotFound = apperr.New(apperr.NotFound, "catalog: property not found")
)

type RoomID string
type PropertyID string

// Room is the read-model projection of a catalog room.
type Room struct {
	ID            RoomID
	PropertyID    PropertyID
	Name          string
	RoomNumber    string
	Capacity      int
	PricePerNight money.Money
	Active        bool
	UpdatedAt     time.Time
}

type Property struct {
	ID        PropertyID
	OwnerID   string
	Name      string
	UpdatedAt time.Time
}

// Reader is what the reservation core needs from the catalog.
type Reader interface {
	Room(ctx context.Context, id RoomID) (*Room, error)
	Property(ctx context.Context, id PropertyID) (*Property, error)
	RoomsByOwner(ctx context.Context, ownerID string) ([]*Room, error)
}

// Writer maintains the local projection.
type Writer interface {
	UpsertRoom(ctx context.Context, room *Room) error
	UpsertProperty(ctx context.Context, property *Property) error
}

func (r *Room) Validate() error {
	var fields []apperr.FieldViolation
	if strings.TrimSpace(string(r.ID)) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "id", Rule: "required"})
	}
	if strings.TrimSpace(string(r.PropertyID)) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "property_id", Rule: "required"})
	}
	if r.Capacity < 1 {
		fields = append(fields, apperr.FieldViolation{Field: "capacity", Rule: "min", Param: "1"})
	}
	if r.PricePerNight.Amount < 0 {
		fields = append(fields, apperr.FieldViolation{Field: "price_per_night", Rule: "min", Param: "0"})
	}
	if r.PricePerNight.Currency == "" {
		fields = append(fields, apperr.FieldViolation{Field: "currency", Rule: "required"})
	}
	if len(fields) > 0 {
		return apperr.Invalid("catalog: invalid room", fields...)
	}
	return nil
}

func (p *Property) Validate() error {
	var fields []apperr.FieldViolation
	if strings.TrimSpace(string(p.ID)) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "id", Rule: "required"})
	}
	if strings.TrimSpace(p.OwnerID) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "owner_id", Rule: "required"})
	}
	if len(fields) > 0 {
		return apperr.Invalid("catalog: invalid property", fields...)
	}
	return nil
}

// OwnerOf resolves the property owner of a room.
func OwnerOf(ctx context.Context, r Reader, roomID RoomID) (string, error) {
	room, err := r.Room(ctx, roomID)
	if err != nil {
		return "", err
	}
	property, err := r.Property(ctx, room.PropertyID)
	if err != nil {
		return "", err
	}
	return property.OwnerID, nil
}
