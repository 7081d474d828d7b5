package booking

import (
	"errors"
	"testing"
	"time"

	"roomstay/internal/domain/catalog"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/daterange"
	"roomstay/internal/domain/shared/money"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testRoom() *catalog.Room {
	return &catalog.Room{ID: "room-1", PropertyID: "prop-1", Capacity: 2, PricePerNight: money.Must(100, "INR"), Active: true}
}

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	dr, err := daterange.New(now.AddDate(0, 0, 1), now.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	room := testRoom()
	b, err := NewBooking(CreateParams{
		ID:        "b-1",
		Room:      room,
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		Price:     pricing.PriceBreakdown{Nights: dr.Nights(), Nightly: room.PricePerNight},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	return b
}

func TestNewBookingStartsPendingUnpaid(t *testing.T) {
	b := newTestBooking(t)
	if b.Status != StatusPending || b.PaymentStatus != PaymentUnpaid {
		t.Fatalf("unexpected initial state %s/%s", b.Status, b.PaymentStatus)
	}
	if b.Total().Amount != 300 {
		t.Fatalf("total = %d, want 300", b.Total().Amount)
	}
	if b.PropertyID != "prop-1" {
		t.Fatalf("property id not denormalized from room")
	}
	if evs := b.PendingEvents(); len(evs) != 1 || evs[0].EventName() != "booking.requested" {
		t.Fatalf("expected booking.requested event, got %v", evs)
	}
}

func TestNewBookingValidation(t *testing.T) {
	dr, _ := daterange.New(now, now.AddDate(0, 0, 1))
	price := pricing.PriceBreakdown{Nights: 1, Nightly: money.Must(100, "INR")}

	_, err := NewBooking(CreateParams{ID: "b", Room: testRoom(), Range: dr, Guests: 0, Price: price})
	if !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if len(apperr.FieldsOf(err)) != 2 {
		t.Fatalf("expected guest id and guests violations, got %v", apperr.FieldsOf(err))
	}

	_, err = NewBooking(CreateParams{ID: "b", Room: testRoom(), GuestID: "g", Range: dr, Guests: 3, Price: price})
	if !errors.Is(err, apperr.CapacityExceeded) {
		t.Fatalf("expected CapacityExceeded, got %v", err)
	}

	_, err = NewBooking(CreateParams{ID: "b", Room: testRoom(), GuestID: "g", Range: daterange.DateRange{CheckIn: now, CheckOut: now}, Guests: 1, Price: price})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestMarkPaidIsGuarded(t *testing.T) {
	b := newTestBooking(t)
	if err := b.MarkPaid("card", "TXN-1", now); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if err := b.MarkPaid("card", "TXN-2", now); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if b.PaymentStatus != PaymentPaid {
		t.Fatalf("payment status changed to %s", b.PaymentStatus)
	}

	c := newTestBooking(t)
	_ = c.Cancel("", RefundAlways, now)
	if err := c.MarkPaid("upi", "TXN-3", now); !errors.Is(err, apperr.Immutable) {
		t.Fatalf("expected Immutable on cancelled booking, got %v", err)
	}
}

func TestCancelTransitions(t *testing.T) {
	b := newTestBooking(t)
	if err := b.Cancel(" plans changed ", RefundAlways, now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Status != StatusCancelled || b.PaymentStatus != PaymentRefunded || b.CancelReason != "plans changed" {
		t.Fatalf("unexpected state after cancel: %s/%s %q", b.Status, b.PaymentStatus, b.CancelReason)
	}
	if err := b.Cancel("", RefundAlways, now); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if err := b.Complete(now); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("expected InvalidTransition completing cancelled booking, got %v", err)
	}

	done := newTestBooking(t)
	if err := done.Complete(now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := done.Cancel("", RefundAlways, now); !errors.Is(err, apperr.Immutable) {
		t.Fatalf("expected Immutable cancelling completed booking, got %v", err)
	}
	if err := done.Complete(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition completing twice, got %v", err)
	}
}

func TestCancelRefundPolicy(t *testing.T) {
	unpaid := newTestBooking(t)
	if err := unpaid.Cancel("", RefundIfPaid, now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if unpaid.PaymentStatus != PaymentUnpaid {
		t.Fatalf("paid_only policy refunded an unpaid booking")
	}

	paid := newTestBooking(t)
	_ = paid.MarkPaid("card", "TXN", now)
	if err := paid.Cancel("", RefundIfPaid, now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if paid.PaymentStatus != PaymentRefunded {
		t.Fatalf("paid booking not refunded")
	}
}

func TestConfirmOnlyFromPending(t *testing.T) {
	b := newTestBooking(t)
	if err := b.Confirm(now); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := b.Confirm(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if !b.IsActive() {
		t.Fatalf("confirmed booking must stay active")
	}
}

func TestReviewEligibility(t *testing.T) {
	cases := []struct {
		name     string
		paid     bool
		complete bool
		user     string
		want     apperr.Kind
	}{
		{"foreign user", true, true, "someone-else", apperr.Unauthorized},
		{"unpaid and pending", false, false, "guest-1", apperr.NotPaid},
		{"unpaid but completed", false, true, "guest-1", apperr.NotPaid},
		{"paid but pending", true, false, "guest-1", apperr.NotCompleted},
		{"paid and completed", true, true, "guest-1", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBooking(t)
			if tc.paid {
				_ = b.MarkPaid("card", "TXN", now)
			}
			if tc.complete {
				_ = b.Complete(now)
			}
			err := b.ReviewEligibility(tc.user)
			if got := apperr.KindOf(err); got != tc.want {
				t.Fatalf("kind = %q, want %q (err=%v)", got, tc.want, err)
			}
		})
	}
}

func TestParseRefundPolicy(t *testing.T) {
	if p, err := ParseRefundPolicy(""); err != nil || p != RefundAlways {
		t.Fatalf("default policy = %q, %v", p, err)
	}
	if p, err := ParseRefundPolicy("PAID_ONLY"); err != nil || p != RefundIfPaid {
		t.Fatalf("paid_only policy = %q, %v", p, err)
	}
	if _, err := ParseRefundPolicy("never"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
