package memory

import (
	"context"
	"sort"

	domaincatalog "roomstay/internal/domain/catalog"
)

type catalogView struct{ u *Unit }

func rooms(t *tables) map[domaincatalog.RoomID]*domaincatalog.Room { return t.rooms }
func properties(t *tables) map[domaincatalog.PropertyID]*domaincatalog.Property {
	return t.properties
}

func (v catalogView) Room(ctx context.Context, id domaincatalog.RoomID) (*domaincatalog.Room, error) {
	room, ok := lookup(v.u, rooms, id)
	if !ok {
		return nil, domaincatalog.ErrRoomNotFound
	}
	c := *room
	return &c, nil
}

func (v catalogView) Property(ctx context.Context, id domaincatalog.PropertyID) (*domaincatalog.Property, error) {
	p, ok := lookup(v.u, properties, id)
	if !ok {
		return nil, domaincatalog.ErrPropertyNotFound
	}
	c := *p
	return &c, nil
}

func (v catalogView) RoomsByOwner(ctx context.Context, ownerID string) ([]*domaincatalog.Room, error) {
	owned := make(map[domaincatalog.PropertyID]struct{})
	scan(v.u, properties, func(p *domaincatalog.Property) {
		if p.OwnerID == ownerID {
			owned[p.ID] = struct{}{}
		}
	})
	out := make([]*domaincatalog.Room, 0)
	scan(v.u, rooms, func(r *domaincatalog.Room) {
		if _, ok := owned[r.PropertyID]; ok {
			c := *r
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertRoom writes straight to the committed data; it is how fixtures and
// the catalog projection feed the store. Older snapshots are ignored.
func (s *Store) UpsertRoom(ctx context.Context, room *domaincatalog.Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	c := *room
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.data.rooms[c.ID]; ok && current.UpdatedAt.After(c.UpdatedAt) {
		return nil
	}
	s.data.rooms[c.ID] = &c
	return nil
}

func (s *Store) UpsertProperty(ctx context.Context, property *domaincatalog.Property) error {
	if err := property.Validate(); err != nil {
		return err
	}
	c := *property
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.data.properties[c.ID]; ok && current.UpdatedAt.After(c.UpdatedAt) {
		return nil
	}
	s.data.properties[c.ID] = &c
	return nil
}

var (
	_ domaincatalog.Reader = catalogView{}
	_ domaincatalog.Writer = (*Store)(nil)
)
