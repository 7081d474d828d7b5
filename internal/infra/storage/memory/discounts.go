package memory

import (
	"context"
	"sort"
	"time"

	domaincatalog "roomstay/internal/domain/catalog"
	domaindiscounts "roomstay/internal/domain/discounts"
)

type discountView struct{ u *Unit }

func discounts(t *tables) map[domaindiscounts.DiscountID]*domaindiscounts.RoomDiscount {
	return t.discounts
}

func (v discountView) Save(ctx context.Context, d *domaindiscounts.RoomDiscount) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	v.u.staged.discounts[d.ID] = d.Clone()
	return nil
}

func (v discountView) Overlapping(ctx context.Context, roomID domaincatalog.RoomID, period domaindiscounts.Period) ([]*domaindiscounts.RoomDiscount, error) {
	return v.filter(func(d *domaindiscounts.RoomDiscount) bool {
		return d.RoomID == roomID && d.Period.Overlaps(period)
	}), nil
}

func (v discountView) ActiveOn(ctx context.Context, roomID domaincatalog.RoomID, t time.Time) ([]*domaindiscounts.RoomDiscount, error) {
	return v.filter(func(d *domaindiscounts.RoomDiscount) bool {
		return d.RoomID == roomID && d.Period.Covers(t)
	}), nil
}

func (v discountView) ListByRooms(ctx context.Context, roomIDs []domaincatalog.RoomID) ([]*domaindiscounts.RoomDiscount, error) {
	wanted := make(map[domaincatalog.RoomID]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		wanted[id] = struct{}{}
	}
	out := v.filter(func(d *domaindiscounts.RoomDiscount) bool {
		_, ok := wanted[d.RoomID]
		return ok
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period.Start.After(out[j].Period.Start) })
	return out, nil
}

func (v discountView) filter(keep func(*domaindiscounts.RoomDiscount) bool) []*domaindiscounts.RoomDiscount {
	out := make([]*domaindiscounts.RoomDiscount, 0)
	scan(v.u, discounts, func(d *domaindiscounts.RoomDiscount) {
		if keep(d) {
			out = append(out, d.Clone())
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SeedDiscount stores a discount without the overlap check. Used to load
// fixtures and to reproduce corrupted data.
func (s *Store) SeedDiscount(d *domaindiscounts.RoomDiscount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.discounts[d.ID] = d.Clone()
}

var _ domaindiscounts.Repository = discountView{}
