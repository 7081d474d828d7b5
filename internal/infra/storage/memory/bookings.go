package memory

import (
	"context"
	"sort"

	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/daterange"
)

var errBookingExists = apperr.New(apperr.Conflict, "memory: booking id already exists")

type bookingView struct{ u *Unit }

func bookings(t *tables) map[domainbooking.BookingID]*domainbooking.Booking { return t.bookings }

func (v bookingView) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, ok := lookup(v.u, bookings, id)
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (v bookingView) Create(ctx context.Context, b *domainbooking.Booking) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	if _, exists := lookup(v.u, bookings, b.ID); exists {
		return errBookingExists
	}
	b.Version = 1
	v.u.staged.bookings[b.ID] = b.Clone()
	return nil
}

func (v bookingView) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := v.u.writable(); err != nil {
		return err
	}
	current, ok := lookup(v.u, bookings, b.ID)
	if !ok {
		return domainbooking.ErrBookingNotFound
	}
	if current.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	v.u.staged.bookings[b.ID] = b.Clone()
	return nil
}

func (v bookingView) ActiveOverlapping(ctx context.Context, roomID domaincatalog.RoomID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	out := make([]*domainbooking.Booking, 0)
	scan(v.u, bookings, func(b *domainbooking.Booking) {
		if b.RoomID == roomID && b.IsActive() && b.Range.Overlaps(dr) {
			out = append(out, b.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Range.CheckIn.Before(out[j].Range.CheckIn) })
	return out, nil
}

func (v bookingView) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	out := make([]*domainbooking.Booking, 0)
	scan(v.u, bookings, func(b *domainbooking.Booking) {
		if b.GuestID == guestID {
			out = append(out, b.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ domainbooking.Repository = bookingView{}
