package dto

import (
	"time"

	domaindiscounts "roomstay/internal/domain/discounts"
)

type Discount struct {
	ID        string       `json:"id"`
	Room      RoomSnapshot `json:"room"`
	Name      string       `json:"name"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Rate      float64      `json:"rate"`
	CreatedAt time.Time    `json:"created_at"`
}

func MapDiscount(d *domaindiscounts.RoomDiscount, room RoomSnapshot) Discount {
	return Discount{
		ID:        string(d.ID),
		Room:      room,
		Name:      d.Name,
		StartDate: d.Period.Start.Format(time.DateOnly),
		EndDate:   d.Period.End.Format(time.DateOnly),
		Rate:      d.Rate,
		CreatedAt: d.CreatedAt,
	}
}

type DiscountCollection struct {
	Items []Discount `json:"items"`
}

// CurrentDiscount is nil-discount when nothing is in force today.
type CurrentDiscount struct {
	RoomID           string    `json:"room_id"`
	AsOf             string    `json:"as_of"`
	Discount         *Discount `json:"discount"`
	NightlyBase      MoneyDTO  `json:"nightly_base"`
	NightlyEffective MoneyDTO  `json:"nightly_effective"`
}
