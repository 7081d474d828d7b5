package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roomstay/internal/domain/catalog"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/daterange"
	"roomstay/internal/domain/shared/events"
	"roomstay/internal/domain/shared/money"
)

var (
	ErrInvalidRange       = apperr.New(apperr.InvalidInput, "booking: check-out must be after check-in")
	ErrBookingNotFound    = apperr.New(apperr.NotFound, "booking: not found")
	ErrRoomUnavailable    = apperr.New(apperr.Conflict, "booking: room is already booked for selected dates")
	ErrConcurrentUpdate   = apperr.New(apperr.Conflict, "booking: concurrent update detected")
	ErrAlreadyPaid        = apperr.New(apperr.AlreadyPaid, "booking: already paid")
	ErrAlreadyCancelled   = apperr.New(apperr.AlreadyCancelled, "booking: already cancelled")
	ErrCompletedImmutable = apperr.New(apperr.Immutable, "booking: completed booking cannot be cancelled")
	ErrCancelledImmutable = apperr.New(apperr.Immutable, "booking: cancelled booking cannot be paid")
	ErrInvalidTransition  = apperr.New(apperr.InvalidTransition, "booking: invalid state transition")
	ErrNotGuest           = apperr.New(apperr.Unauthorized, "booking: requester is not the booking guest")
	ErrNotPropertyOwner   = apperr.New(apperr.Unauthorized, "booking: requester does not own the room's property")
	ErrPaymentIncomplete  = apperr.New(apperr.NotPaid, "booking: payment not completed")
	ErrStayIncomplete     = apperr.New(apperr.NotCompleted, "booking: the property owner has not marked the booking as completed yet")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the statuses that hold a room for their date range.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// RefundPolicy decides the payment status written by a cancellation.
type RefundPolicy string

const (
	// RefundAlways marks every cancelled booking refunded, paid or not.
	RefundAlways RefundPolicy = "always"
	// RefundIfPaid only flips bookings that were paid.
	RefundIfPaid RefundPolicy = "paid_only"
)

func ParseRefundPolicy(raw string) (RefundPolicy, error) {
	switch RefundPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RefundAlways:
		return RefundAlways, nil
	case RefundIfPaid:
		return RefundIfPaid, nil
	default:
		return "", fmt.Errorf("booking: unknown refund policy %q", raw)
	}
}

type Booking struct {
	ID              BookingID
	RoomID          catalog.RoomID
	PropertyID      catalog.PropertyID
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	Price           pricing.PriceBreakdown
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	SpecialRequests string
	CancelReason    string
	InvoiceID       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Create inserts a new booking; implementations serialize it against
	// other admissions for the same room.
	Create(ctx context.Context, booking *Booking) error
	// Save persists a transition, failing with ErrConcurrentUpdate when the
	// stored version moved on.
	Save(ctx context.Context, booking *Booking) error
	ActiveOverlapping(ctx context.Context, roomID catalog.RoomID, dr daterange.DateRange) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	Room            *catalog.Room
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	Price           pricing.PriceBreakdown
	SpecialRequests string
	CreatedAt       time.Time
}

// CapacityError reports the room limit in the rejection.
func CapacityError(capacity int) error {
	return apperr.Newf(apperr.CapacityExceeded, "booking: room supports up to %d guests", capacity)
}

func NewBooking(params CreateParams) (*Booking, error) {
	var fields []apperr.FieldViolation
	if strings.TrimSpace(string(params.ID)) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "id", Rule: "required"})
	}
	if strings.TrimSpace(params.GuestID) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "user_id", Rule: "required"})
	}
	if params.Room == nil {
		fields = append(fields, apperr.FieldViolation{Field: "room_id", Rule: "required"})
	}
	if params.Guests < 1 {
		fields = append(fields, apperr.FieldViolation{Field: "guests", Rule: "min", Param: "1"})
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("booking: invalid booking", fields...)
	}
	if err := params.Range.Validate(); err != nil {
		return nil, ErrInvalidRange
	}
	if params.Guests > params.Room.Capacity {
		return nil, CapacityError(params.Room.Capacity)
	}
	price := params.Price.Copy()
	if err := price.RecalculateTotal(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "booking: invalid price", err)
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		RoomID:          params.Room.ID,
		PropertyID:      params.Room.PropertyID,
		GuestID:         params.GuestID,
		Range:           params.Range,
		Guests:          params.Guests,
		Price:           price,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{BookingID: b.ID, RoomID: b.RoomID, GuestID: b.GuestID, Range: b.Range, Guests: b.Guests, Total: b.Total(), At: now})
	return b, nil
}

// Total is the amount owed, fixed at admission.
func (b *Booking) Total() money.Money {
	return b.Price.Total
}

func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// MarkPaid records a successful capture. Paying a completed stay is allowed
// so guests settling at checkout can still review.
func (b *Booking) MarkPaid(method, transactionID string, now time.Time) error {
	if err := b.CheckPayable(); err != nil {
		return err
	}
	b.PaymentStatus = PaymentPaid
	b.PaymentMethod = method
	b.UpdatedAt = now.UTC()
	b.Record(BookingPaid{BookingID: b.ID, TransactionID: transactionID, Method: method, Amount: b.Total(), At: b.UpdatedAt})
	return nil
}

// CheckPayable reports why the booking cannot take a payment, if it can't.
func (b *Booking) CheckPayable() error {
	if b.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	if b.Status == StatusCancelled {
		return ErrCancelledImmutable
	}
	return nil
}

func (b *Booking) Cancel(reason string, policy RefundPolicy, now time.Time) error {
	switch b.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrCompletedImmutable
	}
	wasPaid := b.PaymentStatus == PaymentPaid
	b.Status = StatusCancelled
	b.CancelReason = strings.TrimSpace(reason)
	if policy != RefundIfPaid || wasPaid {
		b.PaymentStatus = PaymentRefunded
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, RoomID: b.RoomID, Reason: b.CancelReason, Refunded: b.PaymentStatus == PaymentRefunded, WasPaid: wasPaid, Amount: b.Total(), At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.IsTerminal() {
		return ErrInvalidTransition
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, RoomID: b.RoomID, At: b.UpdatedAt})
	return nil
}

// ReviewEligibility returns the first unmet review condition, or nil.
func (b *Booking) ReviewEligibility(userID string) error {
	if b.GuestID == "" || b.GuestID != userID {
		return ErrNotGuest
	}
	if b.PaymentStatus != PaymentPaid {
		return ErrPaymentIncomplete
	}
	if b.Status != StatusCompleted {
		return ErrStayIncomplete
	}
	return nil
}

func (b *Booking) CanReview(userID string) bool {
	return b.ReviewEligibility(userID) == nil
}

// Clone returns a detached copy without pending events.
func (b *Booking) Clone() *Booking {
	c := *b
	c.Price = b.Price.Copy()
	c.EventRecorder = events.EventRecorder{}
	return &c
}
