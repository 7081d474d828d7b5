package booking

import (
	"context"
	"log/slog"

	"roomstay/internal/app/dto"
	"roomstay/internal/app/middleware"
	"roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
	domainbooking "roomstay/internal/domain/booking"
)

const (
	cancelBookingKey   = "booking.cancel"
	confirmBookingKey  = "booking.confirm"
	completeBookingKey = "booking.complete"
)

type CancelBookingCommand struct {
	Principal auth.Principal
	BookingID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (c CancelBookingCommand) Key() string           { return cancelBookingKey }
func (c CancelBookingCommand) Actor() auth.Principal { return c.Principal }
func (c CancelBookingCommand) Action() auth.Action   { return auth.ActionCancelBooking }
func (c CancelBookingCommand) LockKeys() []string    { return []string{BookingLockKey(c.BookingID)} }

type ConfirmBookingCommand struct {
	Principal auth.Principal
	BookingID string `validate:"required"`
}

func (c ConfirmBookingCommand) Key() string           { return confirmBookingKey }
func (c ConfirmBookingCommand) Actor() auth.Principal { return c.Principal }
func (c ConfirmBookingCommand) Action() auth.Action   { return auth.ActionConfirmBooking }
func (c ConfirmBookingCommand) LockKeys() []string    { return []string{BookingLockKey(c.BookingID)} }

type CompleteBookingCommand struct {
	Principal auth.Principal
	BookingID string `validate:"required"`
}

func (c CompleteBookingCommand) Key() string           { return completeBookingKey }
func (c CompleteBookingCommand) Actor() auth.Principal { return c.Principal }
func (c CompleteBookingCommand) Action() auth.Action   { return auth.ActionCompleteBooking }
func (c CompleteBookingCommand) LockKeys() []string    { return []string{BookingLockKey(c.BookingID)} }

// TransitionHandler applies guest and owner lifecycle commands.
type TransitionHandler struct {
	RefundPolicy domainbooking.RefundPolicy
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Clock        policies.Clock
	Logger       *slog.Logger
}

func (h *TransitionHandler) Cancel(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingTransition, error) {
	return h.apply(ctx, cmd.BookingID, "booking cancelled", func(unit uow.UnitOfWork, b *domainbooking.Booking) error {
		if err := requireGuest(cmd.Principal, auth.ActionCancelBooking, b); err != nil {
			return err
		}
		policy := h.RefundPolicy
		if policy == "" {
			policy = domainbooking.RefundAlways
		}
		return b.Cancel(cmd.Reason, policy, policies.Now(h.Clock))
	})
}

func (h *TransitionHandler) Confirm(ctx context.Context, cmd ConfirmBookingCommand) (*dto.BookingTransition, error) {
	return h.apply(ctx, cmd.BookingID, "booking confirmed", func(unit uow.UnitOfWork, b *domainbooking.Booking) error {
		if err := requireOwner(ctx, unit, cmd.Principal, auth.ActionConfirmBooking, b); err != nil {
			return err
		}
		return b.Confirm(policies.Now(h.Clock))
	})
}

func (h *TransitionHandler) Complete(ctx context.Context, cmd CompleteBookingCommand) (*dto.BookingTransition, error) {
	return h.apply(ctx, cmd.BookingID, "booking completed", func(unit uow.UnitOfWork, b *domainbooking.Booking) error {
		if err := requireOwner(ctx, unit, cmd.Principal, auth.ActionCompleteBooking, b); err != nil {
			return err
		}
		return b.Complete(policies.Now(h.Clock))
	})
}

func (h *TransitionHandler) apply(ctx context.Context, bookingID, msg string, transition func(uow.UnitOfWork, *domainbooking.Booking) error) (*dto.BookingTransition, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := loadBooking(ctx, unit, bookingID)
	if err != nil {
		return nil, err
	}
	if err := transition(unit, b); err != nil {
		return nil, err
	}
	if err := unit.Booking().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, msg, "booking_id", b.ID, "status", b.Status, "payment_status", b.PaymentStatus)
	}
	result := dto.MapTransition(b)
	return &result, nil
}

var (
	_ middleware.SerializedCommand = CancelBookingCommand{}
	_ middleware.SerializedCommand = ConfirmBookingCommand{}
	_ middleware.SerializedCommand = CompleteBookingCommand{}
	_ middleware.Guarded           = CompleteBookingCommand{}
)
