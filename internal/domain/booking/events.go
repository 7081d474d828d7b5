package booking

import (
	"time"

	"roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/daterange"
	"roomstay/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID           `json:"booking_id"`
	RoomID    catalog.RoomID      `json:"room_id"`
	GuestID   string              `json:"guest_id"`
	Range     daterange.DateRange `json:"range"`
	Guests    int                 `json:"guests"`
	Total     money.Money         `json:"total"`
	At        time.Time           `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingPaid struct {
	BookingID     BookingID   `json:"booking_id"`
	TransactionID string      `json:"transaction_id"`
	Method        string      `json:"method"`
	Amount        money.Money `json:"amount"`
	At            time.Time   `json:"at"`
}

func (e BookingPaid) EventName() string     { return "booking.paid" }
func (e BookingPaid) AggregateID() string   { return string(e.BookingID) }
func (e BookingPaid) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID      `json:"booking_id"`
	RoomID    catalog.RoomID `json:"room_id"`
	Reason    string         `json:"reason"`
	Refunded  bool           `json:"refunded"`
	WasPaid   bool           `json:"was_paid"`
	Amount    money.Money    `json:"amount"`
	At        time.Time      `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID      `json:"booking_id"`
	RoomID    catalog.RoomID `json:"room_id"`
	At        time.Time      `json:"at"`
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
