package payments

import (
	"context"
	"strings"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/money"
)

var (
	ErrDuplicateTransaction = apperr.New(apperr.AlreadyPaid, "payments: booking already has a transaction")
	ErrTransactionNotFound  = apperr.New(apperr.NotFound, "payments: transaction not found")
	ErrCaptureFailed        = apperr.New(apperr.Internal, "payments: capture failed")
)

type Method string

const (
	MethodCard   Method = "card"
	MethodUPI    Method = "upi"
	MethodWallet Method = "wallet"
	MethodCOD    Method = "cod"
)

var Methods = []Method{MethodCard, MethodUPI, MethodWallet, MethodCOD}

// ParseMethod is case-insensitive.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(raw)))
	for _, allowed := range Methods {
		if m == allowed {
			return m, nil
		}
	}
	names := make([]string, len(Methods))
	for i, allowed := range Methods {
		names[i] = string(allowed)
	}
	return "", apperr.Invalid("payments: invalid payment method, use one of: "+strings.Join(names, ", "),
		apperr.FieldViolation{Field: "payment_method", Rule: "oneof", Param: strings.Join(names, " ")})
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Transaction is an append-only payment record; exactly one exists per paid booking.
type Transaction struct {
	ID            string
	BookingID     booking.BookingID
	UserID        string
	Amount        money.Money
	Method        Method
	Status        Status
	TransactionID string
	PaidAt        time.Time
	CreatedAt     time.Time
}

type Repository interface {
	// Append fails with ErrDuplicateTransaction when the booking already has one.
	Append(ctx context.Context, tx *Transaction) error
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]*Transaction, error)
}

// Capture is the gateway's answer to a charge request.
type Capture struct {
	TransactionID string
	Status        Status
	At            time.Time
}

type RecordParams struct {
	ID        string
	Booking   *booking.Booking
	UserID    string
	Method    Method
	Capture   Capture
	CreatedAt time.Time
}

func Record(params RecordParams) (*Transaction, error) {
	if params.Capture.Status != StatusSuccess {
		return nil, ErrCaptureFailed
	}
	var fields []apperr.FieldViolation
	if strings.TrimSpace(params.ID) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "id", Rule: "required"})
	}
	if params.Booking == nil {
		fields = append(fields, apperr.FieldViolation{Field: "booking_id", Rule: "required"})
	}
	if strings.TrimSpace(params.Capture.TransactionID) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "transaction_id", Rule: "required"})
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("payments: invalid transaction", fields...)
	}
	paidAt := params.Capture.At
	if paidAt.IsZero() {
		paidAt = params.CreatedAt
	}
	return &Transaction{
		ID:            params.ID,
		BookingID:     params.Booking.ID,
		UserID:        params.UserID,
		Amount:        params.Booking.Total(),
		Method:        params.Method,
		Status:        params.Capture.Status,
		TransactionID: params.Capture.TransactionID,
		PaidAt:        paidAt.UTC(),
		CreatedAt:     params.CreatedAt.UTC(),
	}, nil
}
