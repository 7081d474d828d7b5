package catalogsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/money"
)

const (
	EventRoomUpserted     = "room.upserted"
	EventPropertyUpserted = "property.upserted"
)

type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}

// Handler applies catalog CloudEvents to the local projection. Upserts are
// ordered by updated_at, so a redelivered or late event cannot roll a room back.
type Handler struct {
	Catalog  domaincatalog.Writer
	Inbox    Inbox
	Currency string
	Logger   *slog.Logger
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RoomPayload is the room snapshot published by the catalog service.
type RoomPayload struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"property_id"`
	Name          string    `json:"name"`
	RoomNumber    string    `json:"room_number"`
	Capacity      int       `json:"capacity"`
	PricePerNight int64     `json:"price_per_night"`
	Currency      string    `json:"currency"`
	Active        *bool     `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PropertyPayload struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	return h.Apply(ctx, msg.Value)
}

// Apply decodes one CloudEvent and upserts its snapshot. Unknown types are
// acknowledged and skipped.
func (h *Handler) Apply(ctx context.Context, raw []byte) error {
	var ev cloudEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.logger().WarnContext(ctx, "dropping malformed catalog event", "error", err)
		return nil
	}
	if ev.ID != "" && h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, ev.ID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().DebugContext(ctx, "catalog event already applied", "event_id", ev.ID)
			return nil
		}
	}
	var err error
	switch strings.TrimSuffix(ev.Type, ".v1") {
	case EventRoomUpserted:
		var p RoomPayload
		if err = json.Unmarshal(ev.Data, &p); err == nil {
			err = h.upsertRoom(ctx, p)
		}
	case EventPropertyUpserted:
		var p PropertyPayload
		if err = json.Unmarshal(ev.Data, &p); err == nil {
			err = h.Catalog.UpsertProperty(ctx, p.toProperty())
		}
	default:
		h.logger().DebugContext(ctx, "ignoring catalog event", "type", ev.Type)
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalogsync: apply %s %s: %w", ev.Type, ev.ID, err)
	}
	if ev.ID != "" && h.Inbox != nil {
		if err := h.Inbox.Remember(ctx, ev.ID); err != nil {
			return err
		}
	}
	h.logger().InfoContext(ctx, "catalog projection updated", "type", ev.Type, "event_id", ev.ID)
	return nil
}

func (h *Handler) upsertRoom(ctx context.Context, p RoomPayload) error {
	room, err := p.toRoom(h.Currency)
	if err != nil {
		return err
	}
	return h.Catalog.UpsertRoom(ctx, room)
}

func (p RoomPayload) toRoom(defaultCurrency string) (*domaincatalog.Room, error) {
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	price, err := money.New(p.PricePerNight, currency)
	if err != nil {
		return nil, err
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return &domaincatalog.Room{
		ID:            domaincatalog.RoomID(p.ID),
		PropertyID:    domaincatalog.PropertyID(p.PropertyID),
		Name:          p.Name,
		RoomNumber:    p.RoomNumber,
		Capacity:      p.Capacity,
		PricePerNight: price,
		Active:        active,
		UpdatedAt:     p.UpdatedAt.UTC(),
	}, nil
}

func (p PropertyPayload) toProperty() *domaincatalog.Property {
	return &domaincatalog.Property{
		ID:        domaincatalog.PropertyID(p.ID),
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
