package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	"roomstay/internal/app/middleware"
	"roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/services/availability"
	"roomstay/internal/app/services/pricing"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	Principal       auth.Principal
	BookingID       string
	RoomID          string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	Guests          int       `validate:"min=1"`
	SpecialRequests string    `validate:"max=1000"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string            { return createBookingKey }
func (c CreateBookingCommand) Actor() auth.Principal  { return c.Principal }
func (c CreateBookingCommand) Action() auth.Action    { return auth.ActionCreateBooking }
func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CreateBookingCommand) ResultPrototype() any   { return &dto.Booking{} }
func (c CreateBookingCommand) LockKeys() []string     { return []string{RoomLockKey(c.RoomID)} }

// RoomLockKey serializes admissions for one room.
func RoomLockKey(roomID string) string { return "room:" + strings.TrimSpace(roomID) }

// BookingLockKey serializes transitions of one booking.
func BookingLockKey(bookingID string) string { return "booking:" + strings.TrimSpace(bookingID) }

// CreateBookingHandler admits a reservation: the room must exist, fit the
// party and be free for the range; the price is frozen with the discount
// in force today.
type CreateBookingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	dr := daterange.DateRange{CheckIn: cmd.CheckIn.UTC(), CheckOut: cmd.CheckOut.UTC()}
	if err := dr.Validate(); err != nil {
		return nil, domainbooking.ErrInvalidRange
	}

	room, err := unit.Catalog().Room(ctx, domaincatalog.RoomID(strings.TrimSpace(cmd.RoomID)))
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, domaincatalog.ErrRoomNotFound
	}
	if cmd.Guests > room.Capacity {
		return nil, domainbooking.CapacityError(room.Capacity)
	}

	checker := availability.Checker{Bookings: unit.Booking()}
	free, err := checker.IsAvailable(ctx, room.ID, dr)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domainbooking.ErrRoomUnavailable
	}

	now := policies.Now(h.Clock)
	resolver := pricing.Resolver{Discounts: unit.Discounts(), Logger: h.Logger}
	price, err := resolver.Quote(ctx, room, dr, now)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(cmd.BookingID)
	if id == "" {
		id = uuid.NewString()
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(id),
		Room:            room,
		GuestID:         cmd.Principal.ID,
		Range:           dr,
		Guests:          cmd.Guests,
		Price:           price,
		SpecialRequests: cmd.SpecialRequests,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Booking().Create(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking admitted",
			"booking_id", b.ID, "room_id", b.RoomID, "guest_id", b.GuestID,
			"nights", b.Price.Nights, "total", b.Total().Amount)
	}
	result := dto.MapBooking(b, room)
	return &result, nil
}

func requireGuest(p auth.Principal, action auth.Action, b *domainbooking.Booking) error {
	if !auth.Authorize(p, action, auth.Resource{GuestID: b.GuestID}) {
		return domainbooking.ErrNotGuest
	}
	return nil
}

func requireOwner(ctx context.Context, unit uow.UnitOfWork, p auth.Principal, action auth.Action, b *domainbooking.Booking) error {
	ownerID, err := domaincatalog.OwnerOf(ctx, unit.Catalog(), b.RoomID)
	if err != nil {
		return err
	}
	if !auth.Authorize(p, action, auth.Resource{OwnerID: ownerID}) {
		return domainbooking.ErrNotPropertyOwner
	}
	return nil
}

func loadBooking(ctx context.Context, unit uow.UnitOfWork, id string) (*domainbooking.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Invalid("booking: booking id is required", apperr.FieldViolation{Field: "booking_id", Rule: "required"})
	}
	return unit.Booking().ByID(ctx, domainbooking.BookingID(id))
}

var (
	_ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                         = CreateBookingCommand{}
	_ middleware.SerializedCommand                         = CreateBookingCommand{}
	_ middleware.Guarded                                   = CreateBookingCommand{}
)
