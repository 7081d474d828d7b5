package dto

import (
	"time"

	domainreviews "roomstay/internal/domain/reviews"
)

type Review struct {
	ID        string       `json:"id"`
	Room      RoomSnapshot `json:"room"`
	UserID    string       `json:"user_id"`
	BookingID string       `json:"booking_id,omitempty"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func MapReview(r *domainreviews.Review, room RoomSnapshot) Review {
	return Review{
		ID:        string(r.ID),
		Room:      room,
		UserID:    r.UserID,
		BookingID: string(r.BookingID),
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type ReviewCollection struct {
	Items []Review `json:"items"`
}

// ReviewSubmission tells the caller whether the review was created or revised.
type ReviewSubmission struct {
	Review  Review `json:"review"`
	Created bool   `json:"created"`
}
