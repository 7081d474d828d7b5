package reviews

import (
	"context"
	"strings"
	"time"

	"roomstay/internal/domain/booking"
	"roomstay/internal/domain/catalog"
	"roomstay/internal/domain/shared/apperr"
	"roomstay/internal/domain/shared/events"
)

var (
	ErrInvalidRating = apperr.Invalid("reviews: rating must be between 1 and 5",
		apperr.FieldViolation{Field: "rating", Rule: "between", Param: "1 5"})
	ErrNotFound = apperr.New(apperr.NotFound, "reviews: not found")
)

type ReviewID string

// Review is unique per (RoomID, UserID); a second submission revises it.
type Review struct {
	ID        ReviewID
	RoomID    catalog.RoomID
	UserID    string
	BookingID booking.BookingID
	Rating    int
	Comment   string
	Visible   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	// ByRoomAndUser returns ErrNotFound when the user has not reviewed the room.
	ByRoomAndUser(ctx context.Context, roomID catalog.RoomID, userID string) (*Review, error)
	Save(ctx context.Context, review *Review) error
	ListByRooms(ctx context.Context, roomIDs []catalog.RoomID) ([]*Review, error)
}

type SubmitParams struct {
	ID        ReviewID
	RoomID    catalog.RoomID
	UserID    string
	BookingID booking.BookingID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

func Submit(params SubmitParams) (*Review, error) {
	if !validRating(params.Rating) {
		return nil, ErrInvalidRating
	}
	now := params.CreatedAt.UTC()
	r := &Review{
		ID:        params.ID,
		RoomID:    params.RoomID,
		UserID:    params.UserID,
		BookingID: params.BookingID,
		Rating:    params.Rating,
		Comment:   strings.TrimSpace(params.Comment),
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(ReviewSubmitted{ReviewID: r.ID, RoomID: r.RoomID, BookingID: r.BookingID, Rating: r.Rating, At: now})
	return r, nil
}

// Revise replaces rating and comment in place.
func (r *Review) Revise(bookingID booking.BookingID, rating int, comment string, now time.Time) error {
	if !validRating(rating) {
		return ErrInvalidRating
	}
	r.BookingID = bookingID
	r.Rating = rating
	r.Comment = strings.TrimSpace(comment)
	r.UpdatedAt = now.UTC()
	r.Record(ReviewUpdated{ReviewID: r.ID, RoomID: r.RoomID, Rating: rating, At: r.UpdatedAt})
	return nil
}

func (r *Review) Clone() *Review {
	c := *r
	c.EventRecorder = events.EventRecorder{}
	return &c
}

type ReviewSubmitted struct {
	ReviewID  ReviewID          `json:"review_id"`
	RoomID    catalog.RoomID    `json:"room_id"`
	BookingID booking.BookingID `json:"booking_id"`
	Rating    int               `json:"rating"`
	At        time.Time         `json:"at"`
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type ReviewUpdated struct {
	ReviewID ReviewID       `json:"review_id"`
	RoomID   catalog.RoomID `json:"room_id"`
	Rating   int            `json:"rating"`
	At       time.Time      `json:"at"`
}

func (e ReviewUpdated) EventName() string     { return "review.updated" }
func (e ReviewUpdated) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewUpdated) OccurredAt() time.Time { return e.At }
