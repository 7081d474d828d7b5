package booking

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/dto"
	"roomstay/internal/app/middleware"
	"roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/uow"
	"roomstay/internal/domain/auth"
	domainpayments "roomstay/internal/domain/payments"
)

const payBookingKey = "booking.pay"

type PayBookingCommand struct {
	Principal       auth.Principal
	BookingID       string `validate:"required"`
	Method          string `validate:"required"`
	IdempotencyKeyV string
}

func (c PayBookingCommand) Key() string            { return payBookingKey }
func (c PayBookingCommand) Actor() auth.Principal  { return c.Principal }
func (c PayBookingCommand) Action() auth.Action    { return auth.ActionPayBooking }
func (c PayBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c PayBookingCommand) ResultPrototype() any   { return &dto.PaymentReceipt{} }
func (c PayBookingCommand) LockKeys() []string     { return []string{BookingLockKey(c.BookingID)} }

// PayBookingHandler captures the booking total and appends the one
// transaction a booking may have.
type PayBookingHandler struct {
	Gateway policies.PaymentGateway
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *PayBookingHandler) Handle(ctx context.Context, cmd PayBookingCommand) (*dto.PaymentReceipt, error) {
	method, err := domainpayments.ParseMethod(cmd.Method)
	if err != nil {
		return nil, err
	}
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := requireGuest(cmd.Principal, auth.ActionPayBooking, b); err != nil {
		return nil, err
	}
	if err := b.CheckPayable(); err != nil {
		return nil, err
	}

	capture, err := h.Gateway.Charge(ctx, b.ID, b.Total(), method)
	if err != nil {
		return nil, err
	}
	now := policies.Now(h.Clock)
	tx, err := domainpayments.Record(domainpayments.RecordParams{
		ID:        uuid.NewString(),
		Booking:   b,
		UserID:    cmd.Principal.ID,
		Method:    method,
		Capture:   capture,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Transactions().Append(ctx, tx); err != nil {
		return nil, err
	}
	if err := b.MarkPaid(string(method), tx.TransactionID, now); err != nil {
		return nil, err
	}
	if err := unit.Booking().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking paid", "booking_id", b.ID, "transaction_id", tx.TransactionID, "method", method, "amount", tx.Amount.Amount)
	}
	return &dto.PaymentReceipt{Booking: dto.MapTransition(b), Transaction: dto.MapTransaction(tx)}, nil
}

var (
	_ commands.Handler[PayBookingCommand, *dto.PaymentReceipt] = (*PayBookingHandler)(nil)
	_ middleware.IdempotentCommand                             = PayBookingCommand{}
	_ middleware.SerializedCommand                             = PayBookingCommand{}
)
