package policies

import (
	"context"
	"time"

	domainbooking "roomstay/internal/domain/booking"
	domainpayments "roomstay/internal/domain/payments"
	"roomstay/internal/domain/shared/money"
)

// PaymentGateway captures the booking amount from the guest.
type PaymentGateway interface {
	Charge(ctx context.Context, bookingID domainbooking.BookingID, amount money.Money, method domainpayments.Method) (domainpayments.Capture, error)
}

// Clock is injected wherever "today" matters.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Now reads c in UTC, falling back to the system clock when c is nil.
func Now(c Clock) time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// FixedClock always reports T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
