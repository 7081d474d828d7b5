package memory

import (
	"context"
	"sort"

	domaincatalog "roomstay/internal/domain/catalog"
	domainreviews "roomstay/internal/domain/reviews"
)

type reviewView struct{ u *Unit }

func reviews(t *tables) map[reviewKey]*domainreviews.Review { return t.reviews }

func (v reviewView) ByRoomAndUser(ctx context.Context, roomID domaincatalog.RoomID, userID string) (*domainreviews.Review, error) {
	r, ok := lookup(v.u, reviews, reviewKey{room: roomID, user: userID})
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return r.Clone(), nil
}

func (v reviewView) Save(ctx context.Context, r *domainreviews.Review) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	key := reviewKey{room: r.RoomID, user: r.UserID}
	if current, ok := lookup(v.u, reviews, key); ok && current.ID != r.ID {
		return errReviewExists
	}
	r.Version++
	v.u.staged.reviews[key] = r.Clone()
	return nil
}

func (v reviewView) ListByRooms(ctx context.Context, roomIDs []domaincatalog.RoomID) ([]*domainreviews.Review, error) {
	wanted := make(map[domaincatalog.RoomID]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		wanted[id] = struct{}{}
	}
	out := make([]*domainreviews.Review, 0)
	scan(v.u, reviews, func(r *domainreviews.Review) {
		if _, ok := wanted[r.RoomID]; ok {
			out = append(out, r.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

var _ domainreviews.Repository = reviewView{}
