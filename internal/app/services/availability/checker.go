package availability

import (
	"context"

	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/daterange"
)

// Checker answers whether a room is free for a half-open range. Pending and
// confirmed bookings hold their dates; cancelled and completed ones do not.
type Checker struct {
	Bookings domainbooking.Repository
}

func (c Checker) IsAvailable(ctx context.Context, roomID domaincatalog.RoomID, dr daterange.DateRange) (bool, error) {
	blocking, err := c.Blocking(ctx, roomID, dr)
	if err != nil {
		return false, err
	}
	return len(blocking) == 0, nil
}

// Blocking returns the active bookings that overlap dr.
func (c Checker) Blocking(ctx context.Context, roomID domaincatalog.RoomID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	found, err := c.Bookings.ActiveOverlapping(ctx, roomID, dr)
	if err != nil {
		return nil, err
	}
	// Repositories filter in storage; re-check so a loose index query can't
	// admit a false conflict.
	out := found[:0]
	for _, b := range found {
		if b.IsActive() && b.Range.Overlaps(dr) {
			out = append(out, b)
		}
	}
	return out, nil
}
