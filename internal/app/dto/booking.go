package dto

import (
	"time"

	domainbooking "roomstay/internal/domain/booking"
	domaincatalog "roomstay/internal/domain/catalog"
	domainpricing "roomstay/internal/domain/pricing"
	"roomstay/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type AppliedDiscountDTO struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

type PriceDTO struct {
	Nights           int                 `json:"nights"`
	NightlyBase      MoneyDTO            `json:"nightly_base"`
	NightlyEffective MoneyDTO            `json:"nightly_effective"`
	Discount         *AppliedDiscountDTO `json:"discount,omitempty"`
	Total            MoneyDTO            `json:"total"`
}

func MapPrice(p domainpricing.PriceBreakdown) PriceDTO {
	out := PriceDTO{
		Nights:           p.Nights,
		NightlyBase:      MapMoney(p.Nightly),
		NightlyEffective: MapMoney(p.Effective),
		Total:            MapMoney(p.Total),
	}
	if p.Discount != nil {
		out.Discount = &AppliedDiscountDTO{ID: p.Discount.DiscountID, Name: p.Discount.Name, Rate: p.Discount.Rate}
	}
	return out
}

type RoomSnapshot struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Name       string `json:"name,omitempty"`
	RoomNumber string `json:"room_number,omitempty"`
}

func MapRoomSnapshot(id domaincatalog.RoomID, room *domaincatalog.Room) RoomSnapshot {
	out := RoomSnapshot{ID: string(id)}
	if room != nil {
		out.PropertyID = string(room.PropertyID)
		out.Name = room.Name
		out.RoomNumber = room.RoomNumber
	}
	return out
}

type Booking struct {
	ID              string       `json:"id"`
	Room            RoomSnapshot `json:"room"`
	GuestID         string       `json:"user_id"`
	CheckIn         time.Time    `json:"check_in"`
	CheckOut        time.Time    `json:"check_out"`
	Guests          int          `json:"guests"`
	Price           PriceDTO     `json:"price"`
	TotalAmount     MoneyDTO     `json:"total_amount"`
	Status          string       `json:"status"`
	PaymentStatus   string       `json:"payment_status"`
	PaymentMethod   string       `json:"payment_method,omitempty"`
	SpecialRequests string       `json:"special_requests,omitempty"`
	CancelReason    string       `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	CanReview       *bool        `json:"can_review,omitempty"`
}

func MapBooking(b *domainbooking.Booking, room *domaincatalog.Room) Booking {
	return Booking{
		ID:              string(b.ID),
		Room:            MapRoomSnapshot(b.RoomID, room),
		GuestID:         b.GuestID,
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Guests:          b.Guests,
		Price:           MapPrice(b.Price),
		TotalAmount:     MapMoney(b.Total()),
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		PaymentMethod:   b.PaymentMethod,
		SpecialRequests: b.SpecialRequests,
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

// BookingTransition is returned by state-changing booking commands.
type BookingTransition struct {
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func MapTransition(b *domainbooking.Booking) BookingTransition {
	return BookingTransition{BookingID: string(b.ID), Status: string(b.Status), PaymentStatus: string(b.PaymentStatus)}
}

type Availability struct {
	RoomID    string    `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Available bool      `json:"available"`
}

type ReviewEligibility struct {
	BookingID string `json:"booking_id"`
	Eligible  bool   `json:"eligible"`
	Kind      string `json:"kind,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
