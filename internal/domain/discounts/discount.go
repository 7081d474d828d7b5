package discounts

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/events"
)

var (
	ErrOverlappingDiscount = apperr.New(apperr.Conflict, "discounts: discount already exists for overlapping date range")
	ErrDiscountNotFound    = apperr.New(apperr.NotFound, "discounts: not found")
)

type DiscountID string

// Period is a closed interval of whole days: both Start and End are included.
type Period struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: Day(start), End: Day(end)}
	if start.IsZero() || end.IsZero() {
		return Period{}, apperr.Invalid("discounts: start and end dates are required",
			apperr.FieldViolation{Field: "start_date", Rule: "required"},
			apperr.FieldViolation{Field: "end_date", Rule: "required"})
	}
	if p.End.Before(p.Start) {
		return Period{}, apperr.Invalid("discounts: end date must not be before start date",
			apperr.FieldViolation{Field: "end_date", Rule: "gtefield", Param: "start_date"})
	}
	return p, nil
}

func (p Period) Overlaps(other Period) bool {
	return !p.Start.After(other.End) && !p.End.Before(other.Start)
}

// Covers reports whether the day containing t falls inside the period.
func (p Period) Covers(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

type RoomDiscount struct {
	ID        DiscountID
	RoomID    catalog.RoomID
	Name      string
	Period    Period
	Rate      float64
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	// Save inserts a discount. Callers check Overlapping first under a room lock.
	Save(ctx context.Context, discount *RoomDiscount) error
	Overlapping(ctx context.Context, roomID catalog.RoomID, period Period) ([]*RoomDiscount, error)
	// ActiveOn returns every discount whose period covers the day of t.
	ActiveOn(ctx context.Context, roomID catalog.RoomID, t time.Time) ([]*RoomDiscount, error)
	// ListByRooms orders by period start, newest first.
	ListByRooms(ctx context.Context, roomIDs []catalog.RoomID) ([]*RoomDiscount, error)
}

type NewParams struct {
	ID        DiscountID
	RoomID    catalog.RoomID
	Name      string
	Start     time.Time
	End       time.Time
	Rate      float64
	CreatedAt time.Time
}

func NewRoomDiscount(params NewParams) (*RoomDiscount, error) {
	var fields []apperr.FieldViolation
	if strings.TrimSpace(string(params.RoomID)) == "" {
		fields = append(fields, apperr.FieldViolation{Field: "room_id", Rule: "required"})
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		fields = append(fields, apperr.FieldViolation{Field: "name", Rule: "required"})
	}
	if math.IsNaN(params.Rate) || params.Rate < 0 || params.Rate > 100 {
		fields = append(fields, apperr.FieldViolation{Field: "rate", Rule: "between", Param: "0 100"})
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("discounts: invalid discount", fields...)
	}
	period, err := NewPeriod(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	d := &RoomDiscount{
		ID:        params.ID,
		RoomID:    params.RoomID,
		Name:      name,
		Period:    period,
		Rate:      params.Rate,
		CreatedAt: params.CreatedAt.UTC(),
	}
	d.Record(DiscountAdded{DiscountID: d.ID, RoomID: d.RoomID, Rate: d.Rate, Start: period.Start, End: period.End, At: d.CreatedAt})
	return d, nil
}

// Clone returns a detached copy without pending events.
func (d *RoomDiscount) Clone() *RoomDiscount {
	c := *d
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func (d *RoomDiscount) String() string {
	return string(d.ID) + "(" + strconv.FormatFloat(d.Rate, 'f', -1, 64) + "%)"
}

type DiscountAdded struct {
	DiscountID DiscountID     `json:"discount_id"`
	RoomID     catalog.RoomID `json:"room_id"`
	Rate       float64        `json:"rate"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	At         time.Time      `json:"at"`
}

func (e DiscountAdded) EventName() string     { return "discount.added" }
func (e DiscountAdded) AggregateID() string   { return string(e.DiscountID) }
func (e DiscountAdded) OccurredAt() time.Time { return e.At }
