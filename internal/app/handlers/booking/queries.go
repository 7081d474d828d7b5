package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"roomstay/internal/app/dto"
	handlersupport "roomstay/internal/app/handlers/support"
	"roomstay/internal/app/services/availability"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/daterange"
)

const (
	roomAvailabilityKey  = "booking.room_availability"
	listGuestBookingsKey = "booking.list_guest"
	reviewEligibilityKey = "booking.review_eligibility"
)

type RoomAvailabilityQuery struct {
	RoomID   string    `validate:"required"`
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required"`
}

func (q RoomAvailabilityQuery) Key() string { return roomAvailabilityKey }

type ListGuestBookingsQuery struct {
	Principal auth.Principal
}

func (q ListGuestBookingsQuery) Key() string           { return listGuestBookingsKey }
func (q ListGuestBookingsQuery) Actor() auth.Principal { return q.Principal }
func (q ListGuestBookingsQuery) Action() auth.Action   { return auth.ActionViewBookings }

type ReviewEligibilityQuery struct {
	Principal auth.Principal
	BookingID string `validate:"required"`
}

func (q ReviewEligibilityQuery) Key() string           { return reviewEligibilityKey }
func (q ReviewEligibilityQuery) Actor() auth.Principal { return q.Principal }
func (q ReviewEligibilityQuery) Action() auth.Action   { return auth.ActionReviewBooking }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) RoomAvailability(ctx context.Context, q RoomAvailabilityQuery) (dto.Availability, error) {
	dr := daterange.DateRange{CheckIn: q.CheckIn.UTC(), CheckOut: q.CheckOut.UTC()}
	if err := dr.Validate(); err != nil {
		return dto.Availability{}, domainbooking.ErrInvalidRange
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	room, err := unit.Catalog().Room(execCtx, domaincatalog.RoomID(strings.TrimSpace(q.RoomID)))
	if err != nil {
		return dto.Availability{}, err
	}
	free, err := availability.Checker{Bookings: unit.Booking()}.IsAvailable(execCtx, room.ID, dr)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.Availability{RoomID: string(room.ID), CheckIn: dr.CheckIn, CheckOut: dr.CheckOut, Available: free && room.Active}, nil
}

// ListGuestBookings returns the caller's bookings, newest first, each
// flagged with whether a review may be written for it.
func (h *QueryHandler) ListGuestBookings(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	guestID := strings.TrimSpace(q.Principal.ID)
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Booking().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	rooms := make(map[domaincatalog.RoomID]*domaincatalog.Room)
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		room, ok := rooms[b.RoomID]
		if !ok {
			room, err = unit.Catalog().Room(execCtx, b.RoomID)
			if err != nil {
				if !errors.Is(err, apperr.NotFound) {
					return dto.BookingCollection{}, err
				}
				if h.Logger != nil {
					h.Logger.WarnContext(execCtx, "room snapshot missing for booking", "booking_id", b.ID, "room_id", b.RoomID)
				}
			}
			rooms[b.RoomID] = room
		}
		item := dto.MapBooking(b, room)
		canReview := b.CanReview(guestID)
		item.CanReview = &canReview
		items = append(items, item)
	}

	if h.Logger != nil {
		h.Logger.DebugContext(execCtx, "guest bookings listed", "guest_id", guestID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

// ReviewEligibility reports the first unmet review condition as data, so
// clients can explain it without attempting the write.
func (h *QueryHandler) ReviewEligibility(ctx context.Context, q ReviewEligibilityQuery) (dto.ReviewEligibility, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewEligibility{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := loadBooking(execCtx, unit, q.BookingID)
	if err != nil {
		return dto.ReviewEligibility{}, err
	}
	out := dto.ReviewEligibility{BookingID: string(b.ID), Eligible: true}
	if reason := b.ReviewEligibility(q.Principal.ID); reason != nil {
		var appErr *apperr.Error
		if !errors.As(reason, &appErr) {
			return dto.ReviewEligibility{}, reason
		}
		out.Eligible = false
		out.Kind = string(appErr.Kind)
		out.Reason = appErr.Message
	}
	return out, nil
}
