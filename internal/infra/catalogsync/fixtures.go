package catalogsync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	domaincatalog "roomstay/internal/domain/catalog"
)

// Fixtures is the on-disk catalog seed used when no catalog stream is wired.
type Fixtures struct {
	Properties []PropertyPayload `json:"properties"`
	Rooms      []RoomPayload     `json:"rooms"`
}

// LoadFixtures reads a JSON fixtures file into the projection.
func LoadFixtures(ctx context.Context, path string, w domaincatalog.Writer, currency string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("catalogsync: read fixtures: %w", err)
	}
	var fx Fixtures
	if err := json.Unmarshal(raw, &fx); err != nil {
		return 0, fmt.Errorf("catalogsync: decode fixtures: %w", err)
	}
	return ApplyFixtures(ctx, fx, w, currency)
}

func ApplyFixtures(ctx context.Context, fx Fixtures, w domaincatalog.Writer, currency string) (int, error) {
	n := 0
	for _, p := range fx.Properties {
		if err := w.UpsertProperty(ctx, p.toProperty()); err != nil {
			return n, fmt.Errorf("catalogsync: property %s: %w", p.ID, err)
		}
		n++
	}
	for _, r := range fx.Rooms {
		room, err := r.toRoom(currency)
		if err != nil {
			return n, fmt.Errorf("catalogsync: room %s: %w", r.ID, err)
		}
		if err := w.UpsertRoom(ctx, room); err != nil {
			return n, fmt.Errorf("catalogsync: room %s: %w", r.ID, err)
		}
		n++
	}
	return n, nil
}
