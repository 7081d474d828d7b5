package catalogsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"roomstay/internal/app/uow"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/infra/inbox"
	"roomstay/internal/infra/storage/memory"
)

func readRoom(t *testing.T, store *memory.Store, id string) *domaincatalog.Room {
	t.Helper()
	ctx := context.Background()
	unit, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer unit.Rollback(ctx)
	room, err := unit.Catalog().Room(ctx, domaincatalog.RoomID(id))
	if err != nil {
		t.Fatalf("Room(%s): %v", id, err)
	}
	return room
}

func TestApplyUpsertsRoomAndProperty(t *testing.T) {
	store := memory.NewStore()
	h := &Handler{Catalog: store, Inbox: inbox.NewMemoryStore(), Currency: "INR"}
	ctx := context.Background()

	if err := h.Apply(ctx, []byte(`{"id":"e1","type":"property.upserted.v1","data":{"id":"p1","owner_id":"o1","name":"Lakeside","updated_at":"2026-01-01T00:00:00Z"}}`)); err != nil {
		t.Fatalf("property: %v", err)
	}
	if err := h.Apply(ctx, []byte(`{"id":"e2","type":"room.upserted","data":{"id":"r1","property_id":"p1","capacity":2,"price_per_night":150,"updated_at":"2026-01-02T00:00:00Z"}}`)); err != nil {
		t.Fatalf("room: %v", err)
	}
	room := readRoom(t, store, "r1")
	if room.PricePerNight.Amount != 150 || room.PricePerNight.Currency != "INR" || !room.Active {
		t.Fatalf("unexpected room %+v", room)
	}
}

func TestApplyIgnoresStaleAndDuplicateEvents(t *testing.T) {
	store := memory.NewStore()
	h := &Handler{Catalog: store, Inbox: inbox.NewMemoryStore(), Currency: "INR"}
	ctx := context.Background()

	newer := []byte(`{"id":"e2","type":"room.upserted","data":{"id":"r1","property_id":"p1","capacity":3,"price_per_night":200,"updated_at":"2026-02-01T00:00:00Z"}}`)
	older := []byte(`{"id":"e1","type":"room.upserted","data":{"id":"r1","property_id":"p1","capacity":1,"price_per_night":90,"updated_at":"2026-01-01T00:00:00Z"}}`)
	for _, raw := range [][]byte{newer, older, newer} {
		if err := h.Apply(ctx, raw); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if room := readRoom(t, store, "r1"); room.Capacity != 3 {
		t.Fatalf("stale snapshot applied: %+v", room)
	}
}

func TestApplyRejectsInvalidSnapshot(t *testing.T) {
	h := &Handler{Catalog: memory.NewStore(), Inbox: inbox.NewMemoryStore(), Currency: "INR"}
	err := h.Apply(context.Background(), []byte(`{"id":"e1","type":"room.upserted","data":{"id":"r1","property_id":"p1","capacity":0,"price_per_night":10}}`))
	if !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"properties":[{"id":"p1","owner_id":"o1","name":"Lakeside"}],
"rooms":[{"id":"r1","property_id":"p1","name":"Deluxe","capacity":2,"price_per_night":100},
{"id":"r2","property_id":"p1","capacity":4,"price_per_night":250,"currency":"usd","active":false}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store := memory.NewStore()
	n, err := LoadFixtures(context.Background(), path, store, "INR")
	if err != nil || n != 3 {
		t.Fatalf("LoadFixtures = %d, %v", n, err)
	}
	if room := readRoom(t, store, "r2"); room.Active || room.PricePerNight.Currency != "USD" {
		t.Fatalf("unexpected room %+v", room)
	}
}
