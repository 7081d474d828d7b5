package payments

import (
	"errors"
	"testing"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/pricing"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/money"
)

func TestParseMethod(t *testing.T) {
	for _, raw := range []string{"card", "UPI", " Wallet ", "cod"} {
		if _, err := ParseMethod(raw); err != nil {
			t.Fatalf("ParseMethod(%q): %v", raw, err)
		}
	}
	_, err := ParseMethod("cash")
	if !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if fields := apperr.FieldsOf(err); len(fields) != 1 || fields[0].Field != "payment_method" {
		t.Fatalf("unexpected violations %v", fields)
	}
}

func TestRecordCopiesBookingTotal(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	b := &booking.Booking{ID: "b-1", Price: pricing.PriceBreakdown{Total: money.Must(240, "INR")}}
	tx, err := Record(RecordParams{
		ID:        "t-1",
		Booking:   b,
		UserID:    "guest-1",
		Method:    MethodUPI,
		Capture:   Capture{TransactionID: "TXN-1", Status: StatusSuccess, At: now},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tx.Amount.Amount != 240 || tx.BookingID != "b-1" || !tx.PaidAt.Equal(now) {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestRecordRejectsFailedCapture(t *testing.T) {
	_, err := Record(RecordParams{ID: "t", Booking: &booking.Booking{ID: "b"}, Capture: Capture{TransactionID: "x", Status: StatusFailed}})
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
}
